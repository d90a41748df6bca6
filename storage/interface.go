// Package storage defines the persistence interface for completed review
// runs.
package storage

import (
	"context"
)

// Store persists review runs. Implementations must be safe for concurrent
// use by multiple goroutines. Persistence is best-effort from the
// pipeline's point of view: a failing store never fails a review.
type Store interface {
	// StoreRun records one completed review run.
	StoreRun(ctx context.Context, run *ReviewRun) error
	// ListRuns returns the stored runs for a pull request, newest first.
	ListRuns(ctx context.Context, owner, repo string, prNumber int) ([]*ReviewRun, error)
}
