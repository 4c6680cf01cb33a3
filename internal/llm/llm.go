package llm

import (
	"context"
	"fmt"
	"strings"

	"meal-planner/internal/config"
	"meal-planner/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// NewFromConfig picks the configured provider, preferring Gemini. It returns
// nil, nil when no provider key is set.
func NewFromConfig(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	switch {
	case cfg.GeminiAPIKey != "":
		return NewGeminiClient(ctx, cfg)
	case cfg.GroqAPIKey != "":
		return NewGroqClient(cfg), nil
	default:
		return nil, nil
	}
}

// StripCodeFence removes a ```json fence some models wrap around JSON output.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Close closes gen when it holds resources.
func Close(gen TextGenerator) error {
	if c, ok := gen.(Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close LLM client: %w", err)
		}
	}
	return nil
}
