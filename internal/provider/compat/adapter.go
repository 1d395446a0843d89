// Package compat provides an adapter for arbitrary OpenAI-compatible
// backends (local LLM servers, third-party gateways) reached through a
// configurable base URL. It supports native streaming via the shared wire
// client's normalizer.
package compat

import (
	"context"
	"errors"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
	"github.com/davidbz/howl/internal/provider/openaiwire"
)

// PlaceholderAPIKey is the documented placeholder shipped in .env.example.
const PlaceholderAPIKey = "your_openai_compatible_api_key_here"

// Config contains OpenAI-compatible provider configuration.
type Config struct {
	APIKey  string `env:"OPENAI_COMPATIBLE_API_KEY"      envDefault:"your_openai_compatible_api_key_here"`
	BaseURL string `env:"OPENAI_COMPATIBLE_API_BASE_URL" envDefault:"http://localhost:8000/v1"`
}

// Configured reports whether a real API key is present.
func (c Config) Configured() bool {
	return c.APIKey != "" && c.APIKey != PlaceholderAPIKey
}

// Adapter implements the provider contract for OpenAI-compatible backends.
type Adapter struct {
	client *openaiwire.Client
	cfg    Config
}

// NewAdapter creates a new OpenAI-compatible adapter.
func NewAdapter(cfg Config) *Adapter {
	return &Adapter{
		client: openaiwire.NewClient(domain.ProviderOpenAICompatible, cfg.APIKey, cfg.BaseURL),
		cfg:    cfg,
	}
}

// Provider returns the backend kind this adapter serves.
func (a *Adapter) Provider() domain.AIProvider {
	return domain.ProviderOpenAICompatible
}

// Complete sends a completion request and returns the full response.
func (a *Adapter) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	observability.FromContext(ctx).Debug("calling OpenAI-compatible API")
	return a.client.Complete(ctx, req)
}

// Stream sends a completion request and returns a stream of chunks.
func (a *Adapter) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	observability.FromContext(ctx).Debug("calling OpenAI-compatible streaming API")
	return a.client.Stream(ctx, req)
}

// CheckAvailability probes the models endpoint. A placeholder key
// short-circuits to false without touching the network. Backends that do not
// expose a models endpoint report as unavailable; the probe never errors.
func (a *Adapter) CheckAvailability(ctx context.Context) bool {
	if !a.cfg.Configured() {
		return false
	}
	return a.client.Probe(ctx)
}
