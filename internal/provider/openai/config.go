package openai

// PlaceholderAPIKey is the documented placeholder shipped in .env.example.
// A key equal to it counts as "not configured".
const PlaceholderAPIKey = "your_openai_api_key_here"

// Config contains OpenAI provider configuration.
// All fields map to OpenAI SDK options:
//   - APIKey: Maps to option.WithAPIKey()
//   - BaseURL: Maps to option.WithBaseURL()
//   - Timeout: Maps to option.WithRequestTimeout() (in seconds)
//   - MaxRetries: Maps to option.WithMaxRetries()
type Config struct {
	APIKey     string `env:"OPENAI_API_KEY"      envDefault:"your_openai_api_key_here"`
	BaseURL    string `env:"OPENAI_API_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Timeout    int    `env:"OPENAI_TIMEOUT"      envDefault:"60"`
	MaxRetries int    `env:"OPENAI_MAX_RETRIES"  envDefault:"3"`
}

// Configured reports whether a real API key is present.
func (c Config) Configured() bool {
	return c.APIKey != "" && c.APIKey != PlaceholderAPIKey
}
