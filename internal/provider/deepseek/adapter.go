// Package deepseek provides an adapter for the DeepSeek API. DeepSeek
// exposes the OpenAI wire protocol, so the adapter reuses the official
// OpenAI SDK pointed at the DeepSeek base URL. Streaming is not offered
// through this adapter; the gateway emulates it with a single chunk.
package deepseek

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

// availabilityTimeout bounds the models-list probe.
const availabilityTimeout = 10 * time.Second

// Adapter implements the provider contract for DeepSeek.
type Adapter struct {
	client openai.Client
	cfg    Config
}

// NewAdapter creates a new DeepSeek adapter. Extra request options are
// appended after the config-derived ones (tests inject transports that way).
func NewAdapter(cfg Config, extra ...option.RequestOption) *Adapter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
	}

	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(cfg.Timeout)*time.Second))
	}

	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	opts = append(opts, extra...)

	return &Adapter{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

// Provider returns the backend kind this adapter serves.
func (a *Adapter) Provider() domain.AIProvider {
	return domain.ProviderDeepSeek
}

// Complete sends a completion request and returns the full response.
func (a *Adapter) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling DeepSeek API")

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("DeepSeek API call failed", observability.Error(err))
		return nil, a.mapError(err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	id := resp.ID
	if id == "" {
		id = fmt.Sprintf("deepseek-%s", uuid.NewString())
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}

	return &domain.CompletionResponse{
		ID:       id,
		Model:    model,
		Provider: domain.ProviderDeepSeek,
		Content:  content,
		Usage: domain.UsageInfo{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		CreatedAt: time.Now().Format(time.RFC3339),
	}, nil
}

// CheckAvailability probes the models endpoint. A placeholder key
// short-circuits to false without touching the network.
func (a *Adapter) CheckAvailability(ctx context.Context) bool {
	if !a.cfg.Configured() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	_, err := a.client.Models.List(ctx)
	return err == nil
}

// mapError converts SDK failures into the provider error taxonomy.
func (a *Adapter) mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return domain.ErrUpstream(domain.ProviderDeepSeek, apiErr.StatusCode, apiErr.Message)
	}
	return domain.ErrConnection(domain.ProviderDeepSeek, err)
}
