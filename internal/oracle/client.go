// Package oracle talks to the external language oracle that decides whether
// a stored plugin covers a request or authors a new one.
package oracle

import (
	"context"
	"fmt"

	"plugsmith/internal/config"
)

// Client is the minimal interface a provider backend implements.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewClient builds the provider backend selected by config.
func NewClient(cfg config.OracleConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("oracle API key not configured (set PLUGSMITH_API_KEY or oracle.api_key)")
	}

	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(cfg), nil
	case "gemini":
		return NewGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}
