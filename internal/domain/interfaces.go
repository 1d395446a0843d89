package domain

import "context"

// Adapter is the common contract every provider backend implements.
type Adapter interface {
	// Provider returns the backend kind this adapter serves.
	Provider() AIProvider

	// Complete sends a completion request and returns the full response.
	// Failures are always mapped APIErrors.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CheckAvailability probes the upstream with a short timeout. It returns
	// false on any error (including "not configured") and never fails.
	CheckAvailability(ctx context.Context) bool
}

// Streamer is implemented by adapters whose upstream protocol supports
// incremental generation. Adapters without it get the gateway's
// single-chunk emulation fallback.
type Streamer interface {
	// Stream sends a completion request and returns an ordered stream of
	// chunks terminated by exactly one chunk with IsLastChunk set.
	Stream(ctx context.Context, req *CompletionRequest) (<-chan StreamChunk, error)
}

// ModelLister is implemented by adapters whose catalog is fetched from the
// upstream at runtime.
type ModelLister interface {
	// ListModels fetches the currently served models from the upstream.
	ListModels(ctx context.Context) ([]Model, error)
}

// ModelRegistry owns the per-provider model catalogs.
type ModelRegistry interface {
	// ListAll returns the concatenation of all catalogs in provider order:
	// openai, deepseek, litellm, openai_compatible.
	ListAll() []Model

	// ModelsFor returns the catalog of a single provider.
	ModelsFor(p AIProvider) []Model

	// ReplaceDynamic atomically replaces a dynamic provider's catalog
	// wholesale. Only litellm and openai_compatible are replaceable.
	ReplaceDynamic(p AIProvider, models []Model) error
}
