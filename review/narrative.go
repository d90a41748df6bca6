package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// DefaultModel is the Claude model used for narrative reviews.
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxTokens bounds the length of a narrative review.
	DefaultMaxTokens = 1024

	// narrativeTimeout is the maximum time to wait for one narrative
	// review call, including retries.
	narrativeTimeout = 2 * time.Minute

	// maxRetries is the number of times to retry transient API failures.
	maxRetries = 3
)

// retryBaseDelay is the initial delay between retries (doubles each
// attempt). A variable so tests can shrink it.
var retryBaseDelay = 1 * time.Second

// NarrativeClient produces a free-form review of one patch. The call is
// best-effort: callers must tolerate failure and proceed without the
// narrative.
type NarrativeClient interface {
	Review(ctx context.Context, patch string) (string, error)
}

// ClaudeClient implements NarrativeClient against the Anthropic messages
// API.
type ClaudeClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	logger    *slog.Logger
}

// NewClaudeClient creates a narrative review client. Empty model or
// non-positive maxTokens fall back to the defaults.
func NewClaudeClient(apiKey, model string, maxTokens int, logger *slog.Logger) *ClaudeClient {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &ClaudeClient{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
		logger:    logger,
	}
}

// Review sends the patch to Claude and returns the raw narrative text.
func (c *ClaudeClient) Review(ctx context.Context, patch string) (string, error) {
	prompt := BuildNarrativePrompt(patch)

	timeoutCtx, cancel := context.WithTimeout(ctx, narrativeTimeout)
	defer cancel()

	message, err := retryWithBackoff(timeoutCtx, c.logger, "narrativeReview", func() (*anthropic.Message, error) {
		return c.client.Messages.New(timeoutCtx, anthropic.MessageNewParams{
			Model:     anthropic.F(anthropic.Model(c.model)),
			MaxTokens: anthropic.F(c.maxTokens),
			Messages: anthropic.F([]anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			}),
		})
	})
	if err != nil {
		return "", fmt.Errorf("Claude API error: %w", err)
	}

	c.logger.Debug("Claude API usage",
		"input_tokens", message.Usage.InputTokens,
		"output_tokens", message.Usage.OutputTokens,
	)

	for _, block := range message.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("no text content in Claude response")
}

// isRetryableError checks if an error is transient and worth retrying.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// Retry on rate limits, server errors, and network issues
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "timeout") ||
		errors.Is(err, context.DeadlineExceeded)
}

// retryWithBackoff executes fn with exponential backoff on retryable errors.
func retryWithBackoff[T any](ctx context.Context, logger *slog.Logger, operation string, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}

		if !isRetryableError(lastErr) {
			return result, lastErr
		}

		if attempt < maxRetries {
			delay := retryBaseDelay * time.Duration(1<<attempt)
			logger.Warn("retrying after transient error",
				"operation", operation,
				"attempt", attempt+1,
				"max_attempts", maxRetries+1,
				"delay", delay,
				"error", lastErr,
			)

			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return result, fmt.Errorf("max retries exceeded for %s: %w", operation, lastErr)
}
