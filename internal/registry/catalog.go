package registry

import "github.com/davidbz/howl/internal/domain"

// openAIModels returns the fixed OpenAI catalog.
func openAIModels() []domain.Model {
	return []domain.Model{
		{
			ID:          "gpt-4o",
			Name:        "GPT-4o",
			Provider:    domain.ProviderOpenAI,
			Description: "Most capable model for complex tasks",
			MaxTokens:   128000,
		},
		{
			ID:          "gpt-4-turbo",
			Name:        "GPT-4 Turbo",
			Provider:    domain.ProviderOpenAI,
			Description: "Optimized version of GPT-4",
			MaxTokens:   128000,
		},
		{
			ID:          "gpt-3.5-turbo",
			Name:        "GPT-3.5 Turbo",
			Provider:    domain.ProviderOpenAI,
			Description: "Fast and efficient for most tasks",
			MaxTokens:   16385,
		},
	}
}

// deepSeekModels returns the fixed DeepSeek catalog.
func deepSeekModels() []domain.Model {
	return []domain.Model{
		{
			ID:          "deepseek-chat",
			Name:        "DeepSeek Chat",
			Provider:    domain.ProviderDeepSeek,
			Description: "General purpose chat model",
			MaxTokens:   32768,
		},
		{
			ID:          "deepseek-coder",
			Name:        "DeepSeek Coder",
			Provider:    domain.ProviderDeepSeek,
			Description: "Specialized for coding tasks",
			MaxTokens:   32768,
		},
	}
}

// defaultOpenAICompatibleModels returns the catalog the openai_compatible
// provider starts with before any runtime replacement.
func defaultOpenAICompatibleModels() []domain.Model {
	return []domain.Model{
		{
			ID:          "llama3.3-70b-instruct",
			Name:        "Llama 3",
			Provider:    domain.ProviderOpenAICompatible,
			Description: "Meta's Llama 3 model via OpenAI-compatible API",
			MaxTokens:   30000,
		},
		{
			ID:          "deepseek-v3",
			Name:        "DeepSeek-V3",
			Provider:    domain.ProviderOpenAICompatible,
			Description: "DeepSeek V3 model via OpenAI-compatible API",
			MaxTokens:   57344,
		},
		{
			ID:          "qwen-max",
			Name:        "Qwen-Max",
			Provider:    domain.ProviderOpenAICompatible,
			Description: "Qwen-Max model via OpenAI-compatible API",
			MaxTokens:   30720,
		},
	}
}
