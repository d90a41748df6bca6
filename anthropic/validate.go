// Package anthropic holds Anthropic API utilities that are not part of
// the review pipeline itself.
package anthropic

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const validateTimeout = 30 * time.Second

// ValidateAPIKey checks that an Anthropic API key is usable by issuing a
// minimal one-token Haiku request. Returns nil when the key works.
func ValidateAPIKey(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("API key is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	_, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.ModelClaude3_5HaikuLatest),
		MaxTokens: anthropic.F(int64(1)),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("hi")),
		}),
	})
	if err != nil {
		return fmt.Errorf("API key validation failed: %w", err)
	}

	return nil
}

// ExtractKeyHint returns the last 4 characters of an API key so it can be
// named in output without leaking the key.
func ExtractKeyHint(apiKey string) string {
	if len(apiKey) < 4 {
		return "****"
	}
	return apiKey[len(apiKey)-4:]
}
