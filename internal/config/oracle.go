package config

import "time"

// OracleConfig configures the language oracle backend.
type OracleConfig struct {
	// Provider selects the backend: "openai" (any OpenAI-compatible
	// chat-completions endpoint) or "gemini".
	Provider string `yaml:"provider"`

	// APIKey authenticates against the provider. Overridable via
	// PLUGSMITH_API_KEY.
	APIKey string `yaml:"api_key"`

	// BaseURL is the API base for the openai provider.
	BaseURL string `yaml:"base_url"`

	// Model names the chat model to consult.
	Model string `yaml:"model"`

	// MaxTokens caps the reply length.
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultOracleConfig returns sensible defaults.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{
		Provider:  "openai",
		BaseURL:   "https://api.openai.com/v1",
		Model:     "gpt-4o",
		MaxTokens: 1024,
		Timeout:   2 * time.Minute,
	}
}
