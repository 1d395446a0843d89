package deepseek

// PlaceholderAPIKey is the documented placeholder shipped in .env.example.
const PlaceholderAPIKey = "your_deepseek_api_key_here"

// Config contains DeepSeek provider configuration. DeepSeek serves the
// OpenAI wire protocol, so the fields map to the same SDK options as the
// OpenAI provider with a different base URL.
type Config struct {
	APIKey     string `env:"DEEPSEEK_API_KEY"      envDefault:"your_deepseek_api_key_here"`
	BaseURL    string `env:"DEEPSEEK_API_BASE_URL" envDefault:"https://api.deepseek.com/v1"`
	Timeout    int    `env:"DEEPSEEK_TIMEOUT"      envDefault:"60"`
	MaxRetries int    `env:"DEEPSEEK_MAX_RETRIES"  envDefault:"3"`
}

// Configured reports whether a real API key is present.
func (c Config) Configured() bool {
	return c.APIKey != "" && c.APIKey != PlaceholderAPIKey
}
