// Package litellm provides an adapter for a LiteLLM proxy. LiteLLM speaks
// the OpenAI wire protocol; its catalog is fetched from the proxy at runtime
// rather than compiled in. Streaming is not offered through this adapter.
package litellm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
	"github.com/davidbz/howl/internal/provider/openaiwire"
)

// PlaceholderAPIKey is the documented placeholder shipped in .env.example.
const PlaceholderAPIKey = "your_litellm_api_key_here"

// defaultModelMaxTokens is assumed for fetched models; the LiteLLM models
// endpoint does not report a context size.
const defaultModelMaxTokens = 100000

// Config contains LiteLLM provider configuration.
type Config struct {
	APIKey  string `env:"LITELLM_API_KEY"      envDefault:"your_litellm_api_key_here"`
	BaseURL string `env:"LITELLM_API_BASE_URL" envDefault:"http://localhost:4000"`
}

// Configured reports whether a real API key is present.
func (c Config) Configured() bool {
	return c.APIKey != "" && c.APIKey != PlaceholderAPIKey
}

// Adapter implements the provider contract for LiteLLM.
type Adapter struct {
	client *openaiwire.Client
	cfg    Config
}

// NewAdapter creates a new LiteLLM adapter.
func NewAdapter(cfg Config) *Adapter {
	return &Adapter{
		client: openaiwire.NewClient(domain.ProviderLiteLLM, cfg.APIKey, cfg.BaseURL),
		cfg:    cfg,
	}
}

// Provider returns the backend kind this adapter serves.
func (a *Adapter) Provider() domain.AIProvider {
	return domain.ProviderLiteLLM
}

// Complete sends a completion request and returns the full response.
func (a *Adapter) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	observability.FromContext(ctx).Debug("calling LiteLLM API")
	return a.client.Complete(ctx, req)
}

// ListModels fetches the models currently served by the proxy and fills in
// display metadata. An unconfigured key yields an empty catalog without a
// network call.
func (a *Adapter) ListModels(ctx context.Context) ([]domain.Model, error) {
	if !a.cfg.Configured() {
		return []domain.Model{}, nil
	}

	fetched, err := a.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	models := make([]domain.Model, 0, len(fetched))
	for _, m := range fetched {
		owner := m.OwnedBy
		if owner == "" {
			owner = "Unknown"
		}
		models = append(models, domain.Model{
			ID:          m.ID,
			Name:        displayNameFor(m.ID),
			Provider:    domain.ProviderLiteLLM,
			Description: fmt.Sprintf("%s model", owner),
			MaxTokens:   defaultModelMaxTokens,
		})
	}
	return models, nil
}

// displayNameFor derives a human-readable name from a model id, e.g.
// "gpt-4-turbo" becomes "Gpt 4 Turbo".
func displayNameFor(id string) string {
	words := strings.Split(id, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// CheckAvailability probes the models endpoint. A placeholder key
// short-circuits to false without touching the network.
func (a *Adapter) CheckAvailability(ctx context.Context) bool {
	if !a.cfg.Configured() {
		return false
	}
	return a.client.Probe(ctx)
}
