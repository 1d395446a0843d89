package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/howl/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 30, cfg.Server.ReadTimeout)

	require.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	require.True(t, cfg.CORS.AllowCredentials)

	require.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
	require.Equal(t, "https://api.deepseek.com/v1", cfg.DeepSeek.BaseURL)
	require.Equal(t, "http://localhost:4000", cfg.LiteLLM.BaseURL)
	require.Equal(t, "http://localhost:8000/v1", cfg.OpenAICompatible.BaseURL)

	// Placeholder keys mean not configured.
	require.False(t, cfg.OpenAI.Configured())
	require.False(t, cfg.DeepSeek.Configured())
	require.False(t, cfg.LiteLLM.Configured())
	require.False(t, cfg.OpenAICompatible.Configured())

	require.Equal(t, "gpt-4o", cfg.Stock.Model)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("OPENAI_API_KEY", "sk-real-key")
	t.Setenv("LITELLM_API_BASE_URL", "http://litellm.internal:4000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := config.Load()

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "sk-real-key", cfg.OpenAI.APIKey)
	require.True(t, cfg.OpenAI.Configured())
	require.Equal(t, "http://litellm.internal:4000", cfg.LiteLLM.BaseURL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestParseDependenciesConfig(t *testing.T) {
	cfg := config.Load()

	deps := config.ParseDependenciesConfig(cfg)

	require.Same(t, &cfg.Server, deps.Server)
	require.Same(t, &cfg.OpenAI, deps.OpenAI)
}
