package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"plugsmith/internal/config"
	"plugsmith/internal/logging"

	"google.golang.org/genai"
)

// GeminiClient implements Client on the official GenAI SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed oracle client.
func NewGeminiClient(cfg config.OracleConfig) (*GeminiClient, error) {
	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt") {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Complete sends the prompt and returns the reply text. A 429 from the API
// maps to ErrRateLimited.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	logging.OracleDebug("[Gemini] Complete: model=%s prompt_len=%d", c.model, len(prompt))

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			logging.Oracle("[Gemini] rate limited (429)")
			return "", ErrRateLimited
		}
		return "", fmt.Errorf("GenAI request failed: %w", err)
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", fmt.Errorf("no completion returned")
	}

	logging.Oracle("[Gemini] Complete: %v reply_len=%d", time.Since(start), len(reply))
	return reply, nil
}
