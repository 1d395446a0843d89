// Package openai provides an adapter for the OpenAI API using the official
// SDK. It implements the domain.Adapter and domain.Streamer interfaces and
// converts SDK responses and failures into the gateway's normalized shapes.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

// availabilityTimeout bounds the models-list probe.
const availabilityTimeout = 10 * time.Second

// Adapter implements the provider contract for OpenAI.
type Adapter struct {
	client openai.Client
	cfg    Config
}

// NewAdapter creates a new OpenAI adapter. Extra request options are
// appended after the config-derived ones (tests inject transports that way).
func NewAdapter(cfg Config, extra ...option.RequestOption) *Adapter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}

	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
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
	return domain.ProviderOpenAI
}

// Complete sends a completion request and returns the full response.
func (a *Adapter) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI API")

	resp, err := a.client.Chat.Completions.New(ctx, a.toParams(req))
	if err != nil {
		logger.Error("OpenAI API call failed", observability.Error(err))
		return nil, a.mapError(err)
	}

	logger.Debug("OpenAI API call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	return a.toResponse(req, resp), nil
}

// Stream sends a completion request and returns a stream of chunks.
func (a *Adapter) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	observability.FromContext(ctx).Debug("calling OpenAI streaming API")

	stream := a.client.Chat.Completions.NewStreaming(ctx, a.toParams(req))

	chunks := make(chan domain.StreamChunk)
	go a.consumeStream(ctx, stream, req.Model, chunks)
	return chunks, nil
}

// sdkStream is the part of the SDK stream the consumer loop needs.
type sdkStream interface {
	Next() bool
	Current() openai.ChatCompletionChunk
	Err() error
	Close() error
}

// consumeStream normalizes the SDK chunk stream into the gateway chunk
// sequence: content deltas, a single terminal chunk, and a carried error on
// mid-stream failure.
func (a *Adapter) consumeStream(
	ctx context.Context,
	stream sdkStream,
	requestModel string,
	chunks chan<- domain.StreamChunk,
) {
	defer close(chunks)
	defer stream.Close()

	chunkID := fmt.Sprintf("chatcmpl-%s", uuid.NewString())
	model := requestModel
	idSeen, modelSeen := false, false
	accumulated := ""

	for stream.Next() {
		current := stream.Current()

		if !idSeen && current.ID != "" {
			chunkID = current.ID
			idSeen = true
		}
		if !modelSeen && current.Model != "" {
			model = current.Model
			modelSeen = true
		}

		if len(current.Choices) == 0 {
			continue
		}

		if delta := current.Choices[0].Delta.Content; delta != "" {
			accumulated += delta
			if !a.send(ctx, chunks, a.newChunk(chunkID, model, delta, "", false)) {
				return
			}
		}

		if finish := current.Choices[0].FinishReason; finish != "" {
			a.send(ctx, chunks, a.newChunk(chunkID, model, "", finish, true))
			return
		}
	}

	if err := stream.Err(); err != nil && !errors.Is(err, io.EOF) {
		errChunk := a.newChunk(chunkID, model, "", "", true)
		errChunk.Err = domain.AsAPIError(a.mapError(err))
		a.send(ctx, chunks, errChunk)
		return
	}

	// Stream ended without an explicit finish; close it out with the
	// accumulated content.
	a.send(ctx, chunks, a.newChunk(chunkID, model, accumulated, "stop", true))
}

func (a *Adapter) send(ctx context.Context, chunks chan<- domain.StreamChunk, chunk domain.StreamChunk) bool {
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

func (a *Adapter) newChunk(id, model, content, finishReason string, last bool) domain.StreamChunk {
	return domain.StreamChunk{
		ID:           id,
		Model:        model,
		Provider:     domain.ProviderOpenAI,
		Content:      content,
		CreatedAt:    time.Now().Format(time.RFC3339),
		FinishReason: finishReason,
		IsLastChunk:  last,
	}
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
		return domain.ErrUpstream(domain.ProviderOpenAI, apiErr.StatusCode, apiErr.Message)
	}
	return domain.ErrConnection(domain.ProviderOpenAI, err)
}

// toParams converts the gateway request to SDK parameters; the prompt
// becomes a single user message.
func (a *Adapter) toParams(req *domain.CompletionRequest) openai.ChatCompletionNewParams {
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

	return params
}

// toResponse converts an SDK response to the gateway response. A response
// with no choices yields empty content.
func (a *Adapter) toResponse(req *domain.CompletionRequest, resp *openai.ChatCompletion) *domain.CompletionResponse {
	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	id := resp.ID
	if id == "" {
		id = fmt.Sprintf("openai-%s", uuid.NewString())
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}

	createdAt := time.Now()
	if resp.Created > 0 {
		createdAt = time.Unix(resp.Created, 0)
	}

	return &domain.CompletionResponse{
		ID:       id,
		Model:    model,
		Provider: domain.ProviderOpenAI,
		Content:  content,
		Usage: domain.UsageInfo{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		CreatedAt: createdAt.Format(time.RFC3339),
	}
}
