// Package registry owns the per-provider model catalogs. The openai and
// deepseek catalogs are fixed at process start; the litellm and
// openai_compatible catalogs are replaced wholesale at runtime. Dynamic
// catalogs are held behind atomic pointers so readers always see either the
// old or the new catalog, never a mix.
package registry

import (
	"fmt"
	"sync/atomic"

	"github.com/davidbz/howl/internal/domain"
)

// Registry implements domain.ModelRegistry.
type Registry struct {
	openai   []domain.Model
	deepseek []domain.Model

	litellm atomic.Pointer[[]domain.Model]
	compat  atomic.Pointer[[]domain.Model]
}

// NewRegistry creates a registry seeded with the static catalogs, an empty
// litellm catalog and the default openai_compatible catalog.
func NewRegistry() *Registry {
	r := &Registry{
		openai:   openAIModels(),
		deepseek: deepSeekModels(),
	}

	empty := []domain.Model{}
	r.litellm.Store(&empty)

	compat := defaultOpenAICompatibleModels()
	r.compat.Store(&compat)

	return r
}

// ListAll returns the concatenation of the four catalogs in fixed order:
// openai, deepseek, litellm, openai_compatible. Duplicate ids across
// catalogs resolve to the first occurrence.
func (r *Registry) ListAll() []domain.Model {
	litellm := *r.litellm.Load()
	compat := *r.compat.Load()

	all := make([]domain.Model, 0, len(r.openai)+len(r.deepseek)+len(litellm)+len(compat))
	all = append(all, r.openai...)
	all = append(all, r.deepseek...)
	all = append(all, litellm...)
	all = append(all, compat...)
	return all
}

// ModelsFor returns the catalog of a single provider.
func (r *Registry) ModelsFor(p domain.AIProvider) []domain.Model {
	switch p {
	case domain.ProviderOpenAI:
		return r.openai
	case domain.ProviderDeepSeek:
		return r.deepseek
	case domain.ProviderLiteLLM:
		return *r.litellm.Load()
	case domain.ProviderOpenAICompatible:
		return *r.compat.Load()
	default:
		return nil
	}
}

// ReplaceDynamic atomically replaces a dynamic provider's catalog wholesale.
// The incoming slice is copied so later mutation by the caller cannot leak
// into the published catalog. Static catalogs are never replaced.
func (r *Registry) ReplaceDynamic(p domain.AIProvider, models []domain.Model) error {
	replacement := make([]domain.Model, len(models))
	copy(replacement, models)

	switch p {
	case domain.ProviderLiteLLM:
		r.litellm.Store(&replacement)
	case domain.ProviderOpenAICompatible:
		r.compat.Store(&replacement)
	default:
		return fmt.Errorf("provider %s does not have a dynamic catalog", p)
	}
	return nil
}
