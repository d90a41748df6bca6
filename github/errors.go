package github

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for API failure modes callers care about. Everything
// else surfaces as a wrapped generic error.
var (
	// ErrNotFound indicates the requested resource does not exist or is
	// not visible with the current credentials.
	ErrNotFound = errors.New("github: not found")

	// ErrRateLimited indicates the API rate limit has been exhausted.
	ErrRateLimited = errors.New("github: rate limited")
)

// apiError converts a non-2xx response into an error, mapping the status
// codes we distinguish onto sentinel errors.
func apiError(op string, status int, body []byte) error {
	switch status {
	case 404:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case 429:
		return fmt.Errorf("%s: %w", op, ErrRateLimited)
	case 403:
		// GitHub reports rate limiting as 403 with an explanatory body.
		if strings.Contains(strings.ToLower(string(body)), "rate limit") {
			return fmt.Errorf("%s: %w", op, ErrRateLimited)
		}
	}
	return fmt.Errorf("%s: status %d, body: %s", op, status, truncateBody(body))
}

func truncateBody(body []byte) string {
	const maxLen = 200
	if len(body) <= maxLen {
		return string(body)
	}
	return string(body[:maxLen]) + "..."
}
