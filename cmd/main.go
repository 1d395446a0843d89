package main

import (
	"context"
	"log"

	"go.uber.org/dig"

	"github.com/davidbz/howl/internal/config"
	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/httpserver"
	"github.com/davidbz/howl/internal/httpserver/middleware"
	"github.com/davidbz/howl/internal/observability"
	"github.com/davidbz/howl/internal/provider/compat"
	"github.com/davidbz/howl/internal/provider/deepseek"
	"github.com/davidbz/howl/internal/provider/litellm"
	"github.com/davidbz/howl/internal/provider/openai"
	"github.com/davidbz/howl/internal/registry"
	"github.com/davidbz/howl/internal/stockpredict"
)

func main() {
	container := buildContainer()

	// Seed the LiteLLM catalog before serving so the first models listing
	// does not race the first availability probe.
	if err := container.Invoke(initDynamicCatalogs); err != nil {
		log.Fatalf("Failed to initialize dynamic catalogs: %v", err)
	}

	err := container.Invoke(func(server *httpserver.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	// Model Registry
	if err := container.Provide(func() domain.ModelRegistry {
		return registry.NewRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}

	// Provider Adapters
	if err := container.Provide(func(cfg *openai.Config) *openai.Adapter {
		return openai.NewAdapter(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide OpenAI adapter: %v", err)
	}
	if err := container.Provide(func(cfg *deepseek.Config) *deepseek.Adapter {
		return deepseek.NewAdapter(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide DeepSeek adapter: %v", err)
	}
	if err := container.Provide(func(cfg *litellm.Config) *litellm.Adapter {
		return litellm.NewAdapter(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide LiteLLM adapter: %v", err)
	}
	if err := container.Provide(func(cfg *compat.Config) *compat.Adapter {
		return compat.NewAdapter(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide OpenAI-compatible adapter: %v", err)
	}

	// Adapter table: every supported provider has an entry.
	if err := container.Provide(func(
		openaiAdapter *openai.Adapter,
		deepseekAdapter *deepseek.Adapter,
		litellmAdapter *litellm.Adapter,
		compatAdapter *compat.Adapter,
	) map[domain.AIProvider]domain.Adapter {
		return map[domain.AIProvider]domain.Adapter{
			domain.ProviderOpenAI:           openaiAdapter,
			domain.ProviderDeepSeek:         deepseekAdapter,
			domain.ProviderLiteLLM:          litellmAdapter,
			domain.ProviderOpenAICompatible: compatAdapter,
		}
	}); err != nil {
		log.Fatalf("Failed to provide adapter table: %v", err)
	}

	// Domain Services
	if err := container.Provide(domain.NewGatewayService); err != nil {
		log.Fatalf("Failed to provide gateway service: %v", err)
	}
	if err := container.Provide(stockpredict.NewPredictor); err != nil {
		log.Fatalf("Failed to provide stock predictor: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(httpserver.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(httpserver.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

// initDynamicCatalogs fetches the LiteLLM catalog once at startup when the
// provider is configured. A failed fetch leaves the catalog empty and is
// logged; availability probes trigger refreshes later.
func initDynamicCatalogs(gateway *domain.GatewayService, litellmCfg *litellm.Config) {
	ctx := context.Background()
	logger := observability.FromContext(ctx)

	logger.Info("provider configuration",
		observability.Bool("litellm_configured", litellmCfg.Configured()))

	if !litellmCfg.Configured() {
		return
	}

	if err := gateway.RefreshDynamicModels(ctx, domain.ProviderLiteLLM); err != nil {
		logger.Warn("initial LiteLLM catalog fetch failed", observability.Error(err))
	}
}
