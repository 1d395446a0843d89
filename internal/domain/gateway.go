package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidbz/howl/internal/observability"
)

// dynamicRefreshTimeout bounds the background catalog fetch that follows a
// successful availability probe.
const dynamicRefreshTimeout = 10 * time.Second

// GatewayService validates completion requests against the model registry
// and dispatches them to the adapter owning the resolved model.
type GatewayService struct {
	registry ModelRegistry
	adapters map[AIProvider]Adapter
}

// NewGatewayService creates a new gateway service (DI constructor). The
// adapter table is fixed at startup; providers missing from it fail requests
// with UNSUPPORTED_PROVIDER.
func NewGatewayService(registry ModelRegistry, adapters map[AIProvider]Adapter) *GatewayService {
	return &GatewayService{
		registry: registry,
		adapters: adapters,
	}
}

// ResolveModel scans the combined catalog in registry order and returns the
// first model whose id matches.
func (g *GatewayService) ResolveModel(modelID string) (Model, error) {
	for _, model := range g.registry.ListAll() {
		if model.ID == modelID {
			return model, nil
		}
	}
	return Model{}, ErrModelNotFound(modelID)
}

// Validate resolves the requested model and checks the optional provider pin
// against the model's owner.
func (g *GatewayService) Validate(req *CompletionRequest) (Model, error) {
	if req == nil {
		return Model{}, errors.New("request cannot be nil")
	}

	model, err := g.ResolveModel(req.Model)
	if err != nil {
		return Model{}, err
	}

	if req.Provider != "" && req.Provider != model.Provider {
		return Model{}, ErrProviderModelMismatch(req.Model, model.Provider, req.Provider)
	}

	return model, nil
}

// adapterFor looks up the adapter registered for a provider.
func (g *GatewayService) adapterFor(p AIProvider) (Adapter, error) {
	adapter, ok := g.adapters[p]
	if !ok {
		return nil, ErrUnsupportedProvider(p)
	}
	return adapter, nil
}

// Complete validates the request and dispatches it to the resolved
// provider's adapter.
func (g *GatewayService) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	model, err := g.Validate(req)
	if err != nil {
		return nil, err
	}

	adapter, err := g.adapterFor(model.Provider)
	if err != nil {
		return nil, err
	}

	response, err := adapter.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	return response, nil
}

// Stream validates the request and returns a stream of chunks. Adapters with
// native streaming are delegated to directly; for the rest, the full
// non-streaming completion is emitted as a single terminal chunk with the
// same error semantics as Complete.
func (g *GatewayService) Stream(ctx context.Context, req *CompletionRequest) (<-chan StreamChunk, error) {
	model, err := g.Validate(req)
	if err != nil {
		return nil, err
	}

	adapter, err := g.adapterFor(model.Provider)
	if err != nil {
		return nil, err
	}

	if streamer, ok := adapter.(Streamer); ok {
		chunks, streamErr := streamer.Stream(ctx, req)
		if streamErr != nil {
			return nil, fmt.Errorf("failed to stream from provider: %w", streamErr)
		}
		return chunks, nil
	}

	// Streaming emulation fallback for providers without native streaming.
	response, err := adapter.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	chunks := make(chan StreamChunk, 1)
	chunks <- StreamChunk{
		ID:           response.ID,
		Model:        response.Model,
		Provider:     response.Provider,
		Content:      response.Content,
		CreatedAt:    response.CreatedAt,
		FinishReason: "stop",
		IsLastChunk:  true,
	}
	close(chunks)
	return chunks, nil
}

// AvailableProviders probes every adapter independently; one provider's
// failure never affects another's result. A litellm probe that reports
// available additionally triggers a background catalog refresh; the returned
// map does not wait on the refresh outcome.
func (g *GatewayService) AvailableProviders(ctx context.Context) map[AIProvider]bool {
	availability := make(map[AIProvider]bool, len(g.adapters))

	for _, p := range AllProviders() {
		adapter, ok := g.adapters[p]
		if !ok {
			availability[p] = false
			continue
		}
		availability[p] = adapter.CheckAvailability(ctx)
	}

	if availability[ProviderLiteLLM] {
		// Detached from the request so a client disconnect does not abort
		// the refresh mid-replace.
		go func(refreshCtx context.Context) {
			if err := g.RefreshDynamicModels(refreshCtx, ProviderLiteLLM); err != nil {
				observability.FromContext(refreshCtx).Warn("dynamic catalog refresh failed",
					observability.String("provider", string(ProviderLiteLLM)),
					observability.Error(err))
			}
		}(context.WithoutCancel(ctx))
	}

	return availability
}

// RefreshDynamicModels fetches a dynamic provider's catalog and replaces it
// wholesale. A failed fetch leaves the previous catalog untouched; the
// registry never degrades to an empty catalog because an upstream blipped.
func (g *GatewayService) RefreshDynamicModels(ctx context.Context, p AIProvider) error {
	adapter, err := g.adapterFor(p)
	if err != nil {
		return err
	}

	lister, ok := adapter.(ModelLister)
	if !ok {
		return fmt.Errorf("provider %s does not support model listing", p)
	}

	ctx, cancel := context.WithTimeout(ctx, dynamicRefreshTimeout)
	defer cancel()

	models, err := lister.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list %s models: %w", p, err)
	}

	if err := g.registry.ReplaceDynamic(p, models); err != nil {
		return fmt.Errorf("failed to replace %s catalog: %w", p, err)
	}

	observability.FromContext(ctx).Info("dynamic catalog replaced",
		observability.String("provider", string(p)),
		observability.Int("models", len(models)))
	return nil
}
