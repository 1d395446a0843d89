package domain

// AIProvider identifies one of the supported backend kinds.
type AIProvider string

const (
	ProviderOpenAI           AIProvider = "openai"
	ProviderDeepSeek         AIProvider = "deepseek"
	ProviderLiteLLM          AIProvider = "litellm"
	ProviderOpenAICompatible AIProvider = "openai_compatible"
)

// AllProviders returns the providers in registry order. The order decides
// duplicate model id resolution (first occurrence wins) and the order of
// client-facing model listings.
func AllProviders() []AIProvider {
	return []AIProvider{
		ProviderOpenAI,
		ProviderDeepSeek,
		ProviderLiteLLM,
		ProviderOpenAICompatible,
	}
}

// Valid reports whether p is one of the supported providers.
func (p AIProvider) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderDeepSeek, ProviderLiteLLM, ProviderOpenAICompatible:
		return true
	default:
		return false
	}
}

// Model describes one model offered by a provider.
type Model struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Provider    AIProvider `json:"provider"`
	Description string     `json:"description,omitempty"`
	MaxTokens   int        `json:"max_tokens,omitempty"`
}

// CompletionRequest represents a unified completion request. The HTTP layer
// validates ranges and applies the temperature default before the request
// reaches the gateway.
type CompletionRequest struct {
	Model       string     `json:"model"`
	Prompt      string     `json:"prompt"`
	MaxTokens   int        `json:"max_tokens,omitempty"`
	Temperature float64    `json:"temperature"`
	Provider    AIProvider `json:"provider,omitempty"`
	Stream      bool       `json:"stream,omitempty"`
}

// UsageInfo tracks token consumption as reported by the upstream. All fields
// default to zero when the upstream omits usage.
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse represents a unified completion response.
type CompletionResponse struct {
	ID        string     `json:"id"`
	Model     string     `json:"model"`
	Provider  AIProvider `json:"provider"`
	Content   string     `json:"content"`
	Usage     UsageInfo  `json:"usage"`
	CreatedAt string     `json:"created_at"`
}

// StreamChunk represents a single streaming response chunk. A completed
// stream contains exactly one chunk with IsLastChunk set.
//
// Err carries a mid-stream failure to the transport layer; it is never
// serialized to clients directly (the HTTP layer renders it as an SSE error
// frame followed by the [DONE] sentinel).
type StreamChunk struct {
	ID           string     `json:"id"`
	Model        string     `json:"model"`
	Provider     AIProvider `json:"provider"`
	Content      string     `json:"content"`
	CreatedAt    string     `json:"created_at"`
	FinishReason string     `json:"finish_reason,omitempty"`
	IsLastChunk  bool       `json:"is_last_chunk"`

	Err *APIError `json:"-"`
}
