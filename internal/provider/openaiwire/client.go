// Package openaiwire implements a raw HTTP client for backends that speak
// the OpenAI chat-completions protocol but are not served through the
// official SDK: the LiteLLM proxy and arbitrary OpenAI-compatible servers.
// It owns the SSE stream normalization and the upstream error mapping for
// those adapters.
package openaiwire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/howl/internal/domain"
)

const (
	// requestTimeout bounds completion and streaming calls.
	requestTimeout = 60 * time.Second

	// probeTimeout bounds availability probes and model listing.
	probeTimeout = 10 * time.Second
)

// Client wraps HTTP access to one OpenAI-protocol upstream.
type Client struct {
	provider domain.AIProvider
	apiKey   string
	baseURL  string

	httpClient  *http.Client
	probeClient *http.Client
}

// NewClient creates a wire client for the given provider and upstream.
func NewClient(provider domain.AIProvider, apiKey, baseURL string) *Client {
	return &Client{
		provider:    provider,
		apiKey:      apiKey,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
		probeClient: &http.Client{Timeout: probeTimeout},
	}
}

// Provider returns the backend kind this client serves.
func (c *Client) Provider() domain.AIProvider {
	return c.provider
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// mapErrorResponse converts a non-2xx upstream response into the provider
// error taxonomy, pulling the message out of the error body when present.
func (c *Client) mapErrorResponse(resp *http.Response) *domain.APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var parsed errorBody
	message := ""
	if err := json.Unmarshal(body, &parsed); err == nil {
		message = parsed.Error.Message
	}

	return domain.ErrUpstream(c.provider, resp.StatusCode, message)
}

func (c *Client) toChatRequest(req *domain.CompletionRequest, stream bool) chatRequest {
	return chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "user", Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}
}

// Complete sends a non-streaming chat completion request.
func (c *Client) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	payload, err := json.Marshal(c.toChatRequest(req, false))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.ErrConnection(c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.mapErrorResponse(resp)
	}

	var chat chatResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&chat); decodeErr != nil {
		return nil, domain.ErrBadUpstreamPayload(c.provider, decodeErr)
	}

	return c.toCompletionResponse(req, &chat), nil
}

func (c *Client) toCompletionResponse(req *domain.CompletionRequest, chat *chatResponse) *domain.CompletionResponse {
	content := ""
	if len(chat.Choices) > 0 {
		content = chat.Choices[0].Message.Content
	}

	id := chat.ID
	if id == "" {
		id = fmt.Sprintf("%s-%s", c.provider, uuid.NewString())
	}

	model := chat.Model
	if model == "" {
		model = req.Model
	}

	createdAt := time.Now()
	if chat.Created > 0 {
		createdAt = time.Unix(chat.Created, 0)
	}

	return &domain.CompletionResponse{
		ID:       id,
		Model:    model,
		Provider: c.provider,
		Content:  content,
		Usage: domain.UsageInfo{
			PromptTokens:     chat.Usage.PromptTokens,
			CompletionTokens: chat.Usage.CompletionTokens,
			TotalTokens:      chat.Usage.TotalTokens,
		},
		CreatedAt: createdAt.Format(time.RFC3339),
	}
}

// Stream sends a streaming chat completion request and returns a normalized
// chunk sequence. Pre-stream HTTP failures surface as a mapped error before
// any chunk is produced.
func (c *Client) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	payload, err := json.Marshal(c.toChatRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	//nolint:bodyclose // Response body is closed by the normalizer goroutine
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.ErrConnection(c.provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := c.mapErrorResponse(resp)
		_ = resp.Body.Close()
		return nil, apiErr
	}

	chunks := make(chan domain.StreamChunk)
	go c.normalizeStream(ctx, resp, req.Model, chunks)
	return chunks, nil
}

// ModelEntry is one entry of the upstream models listing.
type ModelEntry struct {
	ID      string
	OwnedBy string
}

// ListModels fetches the models currently served by the upstream.
func (c *Client) ListModels(ctx context.Context) ([]ModelEntry, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.probeClient.Do(httpReq)
	if err != nil {
		return nil, domain.ErrConnection(c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.mapErrorResponse(resp)
	}

	var models modelsResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&models); decodeErr != nil {
		return nil, domain.ErrBadUpstreamPayload(c.provider, decodeErr)
	}

	result := make([]ModelEntry, 0, len(models.Data))
	for _, m := range models.Data {
		result = append(result, ModelEntry{ID: m.ID, OwnedBy: m.OwnedBy})
	}
	return result, nil
}

// Probe checks whether the upstream answers its models endpoint. It returns
// false on any failure rather than propagating it.
func (c *Client) Probe(ctx context.Context) bool {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return false
	}

	resp, err := c.probeClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
