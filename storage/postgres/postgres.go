// Package postgres provides a PostgreSQL implementation of the review run
// store, for users who want a durable history of generated reports.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/rubberhq/rubber/storage"
)

// PostgreSQL provides storage operations using PostgreSQL.
type PostgreSQL struct {
	db *sql.DB
}

// New creates a new PostgreSQL store over an existing database handle.
func New(db *sql.DB) *PostgreSQL {
	return &PostgreSQL{db: db}
}

// NewFromDSN creates a new PostgreSQL store from a connection string.
func NewFromDSN(dsn string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &PostgreSQL{db: db}, nil
}

// Close closes the database connection.
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

// Migrate creates the required database tables.
func (p *PostgreSQL) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS review_runs (
			id SERIAL PRIMARY KEY,
			owner TEXT NOT NULL,
			repo TEXT NOT NULL,
			pr_number INTEGER NOT NULL,
			report TEXT NOT NULL,
			findings JSONB,
			files_reviewed INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_review_runs_pr ON review_runs(owner, repo, pr_number);
	`

	_, err := p.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// StoreRun records one completed review run.
func (p *PostgreSQL) StoreRun(ctx context.Context, run *storage.ReviewRun) error {
	query := `
		INSERT INTO review_runs (owner, repo, pr_number, report, findings, files_reviewed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	_, err := p.db.ExecContext(ctx, query,
		run.Owner,
		run.Repo,
		run.PRNumber,
		run.Report,
		findingsToJSON(run.Findings),
		run.FilesReviewed,
	)
	if err != nil {
		return fmt.Errorf("failed to store review run: %w", err)
	}

	return nil
}

// ListRuns returns the stored runs for a pull request, newest first.
func (p *PostgreSQL) ListRuns(ctx context.Context, owner, repo string, prNumber int) ([]*storage.ReviewRun, error) {
	query := `
		SELECT id, owner, repo, pr_number, report, findings, files_reviewed, created_at
		FROM review_runs
		WHERE owner = $1 AND repo = $2 AND pr_number = $3
		ORDER BY created_at DESC
	`

	rows, err := p.db.QueryContext(ctx, query, owner, repo, prNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list review runs: %w", err)
	}
	defer rows.Close()

	var runs []*storage.ReviewRun
	for rows.Next() {
		var run storage.ReviewRun
		var findingsJSON sql.NullString
		var createdAt time.Time

		if err := rows.Scan(
			&run.ID,
			&run.Owner,
			&run.Repo,
			&run.PRNumber,
			&run.Report,
			&findingsJSON,
			&run.FilesReviewed,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review run: %w", err)
		}

		run.Findings = findingsFromJSON(findingsJSON.String)
		run.CreatedAt = createdAt.Format(time.RFC3339)
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// Verify PostgreSQL implements Store at compile time.
var _ storage.Store = (*PostgreSQL)(nil)
