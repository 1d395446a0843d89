package domain_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/howl/internal/domain"
)

// stubRegistry is a mock implementation of domain.ModelRegistry for testing.
type stubRegistry struct {
	mu       sync.Mutex
	models   []domain.Model
	replaced map[domain.AIProvider][]domain.Model
}

func newStubRegistry(models ...domain.Model) *stubRegistry {
	return &stubRegistry{
		models:   models,
		replaced: make(map[domain.AIProvider][]domain.Model),
	}
}

func (s *stubRegistry) ListAll() []domain.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.models
}

func (s *stubRegistry) ModelsFor(p domain.AIProvider) []domain.Model {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Model
	for _, m := range s.models {
		if m.Provider == p {
			out = append(out, m)
		}
	}
	return out
}

func (s *stubRegistry) ReplaceDynamic(p domain.AIProvider, models []domain.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaced[p] = models
	return nil
}

func (s *stubRegistry) replacedWith(p domain.AIProvider) ([]domain.Model, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	models, ok := s.replaced[p]
	return models, ok
}

// fakeAdapter is a mock implementation of domain.Adapter without streaming.
type fakeAdapter struct {
	provider  domain.AIProvider
	response  *domain.CompletionResponse
	err       error
	available bool
}

func (f *fakeAdapter) Provider() domain.AIProvider {
	return f.provider
}

func (f *fakeAdapter) Complete(_ context.Context, _ *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	return f.response, f.err
}

func (f *fakeAdapter) CheckAvailability(_ context.Context) bool {
	return f.available
}

// streamingAdapter additionally implements domain.Streamer.
type streamingAdapter struct {
	fakeAdapter
	chunks []domain.StreamChunk
}

func (s *streamingAdapter) Stream(_ context.Context, _ *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	ch := make(chan domain.StreamChunk, len(s.chunks))
	for _, chunk := range s.chunks {
		ch <- chunk
	}
	close(ch)
	return ch, nil
}

// listingAdapter additionally implements domain.ModelLister.
type listingAdapter struct {
	fakeAdapter
	models  []domain.Model
	listErr error
}

func (l *listingAdapter) ListModels(_ context.Context) ([]domain.Model, error) {
	return l.models, l.listErr
}

func catalogModel(id string, p domain.AIProvider) domain.Model {
	return domain.Model{ID: id, Name: id, Provider: p}
}

func TestGatewayService_ResolveModel(t *testing.T) {
	registry := newStubRegistry(
		catalogModel("gpt-4o", domain.ProviderOpenAI),
		catalogModel("deepseek-chat", domain.ProviderDeepSeek),
	)
	gateway := domain.NewGatewayService(registry, nil)

	t.Run("resolves a known model", func(t *testing.T) {
		model, err := gateway.ResolveModel("deepseek-chat")
		require.NoError(t, err)
		require.Equal(t, domain.ProviderDeepSeek, model.Provider)
	})

	t.Run("unknown model returns MODEL_NOT_FOUND", func(t *testing.T) {
		_, err := gateway.ResolveModel("not-a-real-model")
		require.Error(t, err)

		apiErr := domain.AsAPIError(err)
		require.Equal(t, 400, apiErr.StatusCode)
		require.Equal(t, "MODEL_NOT_FOUND", apiErr.Code)
		require.Equal(t, "Model 'not-a-real-model' not found", apiErr.Message)
	})

	t.Run("duplicate ids resolve to the first catalog", func(t *testing.T) {
		dup := newStubRegistry(
			catalogModel("shared-model", domain.ProviderOpenAI),
			catalogModel("shared-model", domain.ProviderLiteLLM),
		)
		dupGateway := domain.NewGatewayService(dup, nil)

		model, err := dupGateway.ResolveModel("shared-model")
		require.NoError(t, err)
		require.Equal(t, domain.ProviderOpenAI, model.Provider)
	})
}

func TestGatewayService_Validate(t *testing.T) {
	registry := newStubRegistry(catalogModel("gpt-4o", domain.ProviderOpenAI))
	gateway := domain.NewGatewayService(registry, nil)

	t.Run("accepts a matching provider pin", func(t *testing.T) {
		model, err := gateway.Validate(&domain.CompletionRequest{
			Model:    "gpt-4o",
			Provider: domain.ProviderOpenAI,
		})
		require.NoError(t, err)
		require.Equal(t, "gpt-4o", model.ID)
	})

	t.Run("mismatched provider pin names both providers", func(t *testing.T) {
		_, err := gateway.Validate(&domain.CompletionRequest{
			Model:    "gpt-4o",
			Provider: domain.ProviderDeepSeek,
		})
		require.Error(t, err)

		apiErr := domain.AsAPIError(err)
		require.Equal(t, "PROVIDER_MODEL_MISMATCH", apiErr.Code)
		require.Equal(t, "Model 'gpt-4o' belongs to provider 'openai', not 'deepseek'", apiErr.Message)
	})

	t.Run("nil request is rejected", func(t *testing.T) {
		_, err := gateway.Validate(nil)
		require.Error(t, err)
	})
}

func TestGatewayService_Complete(t *testing.T) {
	registry := newStubRegistry(
		catalogModel("gpt-4o", domain.ProviderOpenAI),
		catalogModel("deepseek-chat", domain.ProviderDeepSeek),
		catalogModel("orphan-model", domain.ProviderLiteLLM),
	)

	openaiResponse := &domain.CompletionResponse{ID: "resp-openai", Provider: domain.ProviderOpenAI}
	deepseekResponse := &domain.CompletionResponse{ID: "resp-deepseek", Provider: domain.ProviderDeepSeek}

	gateway := domain.NewGatewayService(registry, map[domain.AIProvider]domain.Adapter{
		domain.ProviderOpenAI:   &fakeAdapter{provider: domain.ProviderOpenAI, response: openaiResponse},
		domain.ProviderDeepSeek: &fakeAdapter{provider: domain.ProviderDeepSeek, response: deepseekResponse},
	})

	t.Run("routes to the adapter owning the model", func(t *testing.T) {
		resp, err := gateway.Complete(context.Background(), &domain.CompletionRequest{
			Model:  "deepseek-chat",
			Prompt: "hello",
		})
		require.NoError(t, err)
		require.Equal(t, "resp-deepseek", resp.ID)
	})

	t.Run("provider without adapter fails with UNSUPPORTED_PROVIDER", func(t *testing.T) {
		_, err := gateway.Complete(context.Background(), &domain.CompletionRequest{
			Model:  "orphan-model",
			Prompt: "hello",
		})
		require.Error(t, err)
		require.Equal(t, "UNSUPPORTED_PROVIDER", domain.AsAPIError(err).Code)
	})

	t.Run("adapter errors are propagated", func(t *testing.T) {
		failing := domain.NewGatewayService(registry, map[domain.AIProvider]domain.Adapter{
			domain.ProviderOpenAI: &fakeAdapter{
				provider: domain.ProviderOpenAI,
				err:      domain.ErrUpstream(domain.ProviderOpenAI, 429, ""),
			},
		})

		_, err := failing.Complete(context.Background(), &domain.CompletionRequest{
			Model:  "gpt-4o",
			Prompt: "hello",
		})
		require.Error(t, err)
		require.Equal(t, "OPENAI_RATE_LIMIT", domain.AsAPIError(err).Code)
	})
}

func TestGatewayService_Stream(t *testing.T) {
	registry := newStubRegistry(
		catalogModel("gpt-4o", domain.ProviderOpenAI),
		catalogModel("deepseek-chat", domain.ProviderDeepSeek),
	)

	t.Run("delegates to a native streamer", func(t *testing.T) {
		native := []domain.StreamChunk{
			{ID: "c1", Content: "Hel", Provider: domain.ProviderOpenAI},
			{ID: "c1", Content: "lo", Provider: domain.ProviderOpenAI},
			{ID: "c1", FinishReason: "stop", IsLastChunk: true, Provider: domain.ProviderOpenAI},
		}
		gateway := domain.NewGatewayService(registry, map[domain.AIProvider]domain.Adapter{
			domain.ProviderOpenAI: &streamingAdapter{
				fakeAdapter: fakeAdapter{provider: domain.ProviderOpenAI},
				chunks:      native,
			},
		})

		chunks, err := gateway.Stream(context.Background(), &domain.CompletionRequest{
			Model:  "gpt-4o",
			Prompt: "hello",
			Stream: true,
		})
		require.NoError(t, err)

		var got []domain.StreamChunk
		for chunk := range chunks {
			got = append(got, chunk)
		}
		require.Equal(t, native, got)
	})

	t.Run("emulates streaming as a single terminal chunk", func(t *testing.T) {
		response := &domain.CompletionResponse{
			ID:        "resp-1",
			Model:     "deepseek-chat",
			Provider:  domain.ProviderDeepSeek,
			Content:   "full answer",
			CreatedAt: time.Now().Format(time.RFC3339),
		}
		gateway := domain.NewGatewayService(registry, map[domain.AIProvider]domain.Adapter{
			domain.ProviderDeepSeek: &fakeAdapter{provider: domain.ProviderDeepSeek, response: response},
		})

		chunks, err := gateway.Stream(context.Background(), &domain.CompletionRequest{
			Model:  "deepseek-chat",
			Prompt: "hello",
			Stream: true,
		})
		require.NoError(t, err)

		var got []domain.StreamChunk
		for chunk := range chunks {
			got = append(got, chunk)
		}

		require.Len(t, got, 1)
		require.Equal(t, response.ID, got[0].ID)
		require.Equal(t, response.Model, got[0].Model)
		require.Equal(t, response.Content, got[0].Content)
		require.Equal(t, response.CreatedAt, got[0].CreatedAt)
		require.Equal(t, "stop", got[0].FinishReason)
		require.True(t, got[0].IsLastChunk)
	})

	t.Run("emulation failure surfaces before any chunk", func(t *testing.T) {
		gateway := domain.NewGatewayService(registry, map[domain.AIProvider]domain.Adapter{
			domain.ProviderDeepSeek: &fakeAdapter{
				provider: domain.ProviderDeepSeek,
				err:      domain.ErrConnection(domain.ProviderDeepSeek, errors.New("refused")),
			},
		})

		_, err := gateway.Stream(context.Background(), &domain.CompletionRequest{
			Model:  "deepseek-chat",
			Prompt: "hello",
			Stream: true,
		})
		require.Error(t, err)
		require.Equal(t, "DEEPSEEK_CONNECTION_ERROR", domain.AsAPIError(err).Code)
	})
}

func TestGatewayService_AvailableProviders(t *testing.T) {
	registry := newStubRegistry()

	t.Run("probes every provider independently", func(t *testing.T) {
		gateway := domain.NewGatewayService(registry, map[domain.AIProvider]domain.Adapter{
			domain.ProviderOpenAI:           &fakeAdapter{provider: domain.ProviderOpenAI, available: true},
			domain.ProviderDeepSeek:         &fakeAdapter{provider: domain.ProviderDeepSeek, available: false},
			domain.ProviderOpenAICompatible: &fakeAdapter{provider: domain.ProviderOpenAICompatible, available: true},
		})

		availability := gateway.AvailableProviders(context.Background())

		require.True(t, availability[domain.ProviderOpenAI])
		require.False(t, availability[domain.ProviderDeepSeek])
		require.True(t, availability[domain.ProviderOpenAICompatible])
		// No litellm adapter registered at all.
		require.False(t, availability[domain.ProviderLiteLLM])
	})

	t.Run("available litellm triggers a background catalog refresh", func(t *testing.T) {
		reg := newStubRegistry()
		fetched := []domain.Model{catalogModel("claude-3", domain.ProviderLiteLLM)}

		gateway := domain.NewGatewayService(reg, map[domain.AIProvider]domain.Adapter{
			domain.ProviderLiteLLM: &listingAdapter{
				fakeAdapter: fakeAdapter{provider: domain.ProviderLiteLLM, available: true},
				models:      fetched,
			},
		})

		availability := gateway.AvailableProviders(context.Background())
		require.True(t, availability[domain.ProviderLiteLLM])

		require.Eventually(t, func() bool {
			models, ok := reg.replacedWith(domain.ProviderLiteLLM)
			return ok && len(models) == 1 && models[0].ID == "claude-3"
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("unavailable litellm does not refresh", func(t *testing.T) {
		reg := newStubRegistry()
		gateway := domain.NewGatewayService(reg, map[domain.AIProvider]domain.Adapter{
			domain.ProviderLiteLLM: &listingAdapter{
				fakeAdapter: fakeAdapter{provider: domain.ProviderLiteLLM, available: false},
			},
		})

		gateway.AvailableProviders(context.Background())

		time.Sleep(50 * time.Millisecond)
		_, ok := reg.replacedWith(domain.ProviderLiteLLM)
		require.False(t, ok)
	})
}

func TestGatewayService_RefreshDynamicModels(t *testing.T) {
	t.Run("replaces the catalog on success", func(t *testing.T) {
		reg := newStubRegistry()
		fetched := []domain.Model{
			catalogModel("model-a", domain.ProviderLiteLLM),
			catalogModel("model-b", domain.ProviderLiteLLM),
		}
		gateway := domain.NewGatewayService(reg, map[domain.AIProvider]domain.Adapter{
			domain.ProviderLiteLLM: &listingAdapter{
				fakeAdapter: fakeAdapter{provider: domain.ProviderLiteLLM},
				models:      fetched,
			},
		})

		err := gateway.RefreshDynamicModels(context.Background(), domain.ProviderLiteLLM)
		require.NoError(t, err)

		models, ok := reg.replacedWith(domain.ProviderLiteLLM)
		require.True(t, ok)
		require.Len(t, models, 2)
	})

	t.Run("a failed fetch leaves the catalog untouched", func(t *testing.T) {
		reg := newStubRegistry()
		gateway := domain.NewGatewayService(reg, map[domain.AIProvider]domain.Adapter{
			domain.ProviderLiteLLM: &listingAdapter{
				fakeAdapter: fakeAdapter{provider: domain.ProviderLiteLLM},
				listErr:     domain.ErrConnection(domain.ProviderLiteLLM, errors.New("refused")),
			},
		})

		err := gateway.RefreshDynamicModels(context.Background(), domain.ProviderLiteLLM)
		require.Error(t, err)

		_, ok := reg.replacedWith(domain.ProviderLiteLLM)
		require.False(t, ok)
	})

	t.Run("provider without listing support is rejected", func(t *testing.T) {
		reg := newStubRegistry()
		gateway := domain.NewGatewayService(reg, map[domain.AIProvider]domain.Adapter{
			domain.ProviderOpenAI: &fakeAdapter{provider: domain.ProviderOpenAI},
		})

		err := gateway.RefreshDynamicModels(context.Background(), domain.ProviderOpenAI)
		require.Error(t, err)
	})
}
