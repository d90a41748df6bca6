package review

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rubberhq/rubber/github"
	"github.com/rubberhq/rubber/report"
)

const (
	// listLimit is how many recent PRs the listing shows.
	listLimit = 10

	// maxCountFetches bounds the concurrent comment-count requests.
	maxCountFetches = 4

	titleWidth = 47
)

// ListingClient is the slice of the hosting API the lister needs.
// *github.Client satisfies it.
type ListingClient interface {
	ListPullRequests(ctx context.Context, owner, repo string, perPage int) ([]github.PullRequest, error)
	CountIssueComments(ctx context.Context, owner, repo string, number int) (int, error)
}

// Lister renders the recent-PR overview table for a repository.
type Lister struct {
	hosting ListingClient
	logger  *slog.Logger
}

func NewLister(hosting ListingClient, logger *slog.Logger) *Lister {
	return &Lister{hosting: hosting, logger: logger}
}

// ListRecent fetches the most recent pull requests and renders them as a
// table. Comment counts are fetched with bounded concurrency; a count
// that cannot be fetched renders as "error". Returns the rendered table
// and the fetched PRs so callers can resolve a selection against them.
func (l *Lister) ListRecent(ctx context.Context, owner, repo string) (string, []github.PullRequest, error) {
	l.logger.Info("listing recent pull requests", "owner", owner, "repo", repo)

	prs, err := l.hosting.ListPullRequests(ctx, owner, repo, listLimit)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list pull requests: %w", err)
	}

	doc := report.NewDocument(fmt.Sprintf("Fetching the %d most recent PRs for %s/%s", listLimit, owner, repo))
	if len(prs) == 0 {
		doc.AddLine("No pull requests found.")
		return doc.Render(), nil, nil
	}

	counts := l.fetchCommentCounts(ctx, owner, repo, prs)

	doc.AddLine(fmt.Sprintf("%-6s %-50s %-20s %-15s %-15s", "PR#", "Title", "Author", "Created At", "Comments"))
	doc.AddLine(strings.Repeat("-", 106))

	for i, pr := range prs {
		author := ""
		if pr.User != nil {
			author = pr.User.Login
		}
		doc.AddLine(fmt.Sprintf("%-6d %-50s %-20s %-15s %-15s",
			pr.Number, truncateTitle(pr.Title), author, pr.CreatedAt, counts[i]))
		doc.AddLine(fmt.Sprintf("       URL: %s", pr.HTMLURL))
	}

	return doc.Render(), prs, nil
}

// fetchCommentCounts resolves the comment count for each PR, at most
// maxCountFetches in flight at once. Failures degrade to "error" for the
// affected PR only.
func (l *Lister) fetchCommentCounts(ctx context.Context, owner, repo string, prs []github.PullRequest) []string {
	counts := make([]string, len(prs))
	sem := semaphore.NewWeighted(maxCountFetches)

	g, gctx := errgroup.WithContext(ctx)
	for i, pr := range prs {
		i, pr := i, pr
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				counts[i] = "error"
				return nil
			}
			defer sem.Release(1)

			n, err := l.hosting.CountIssueComments(gctx, owner, repo, pr.Number)
			if err != nil {
				l.logger.Warn("failed to count comments", "pr", pr.Number, "error", err)
				counts[i] = "error"
				return nil
			}
			counts[i] = strconv.Itoa(n)
			return nil
		})
	}
	// Workers never return errors, they degrade in place.
	_ = g.Wait()

	return counts
}

func truncateTitle(title string) string {
	if len(title) > titleWidth {
		return title[:titleWidth-3] + "..."
	}
	return title
}

// FindPR returns the PR with the given number from a fetched listing.
func FindPR(prs []github.PullRequest, number int) (*github.PullRequest, bool) {
	for i := range prs {
		if prs[i].Number == number {
			return &prs[i], true
		}
	}
	return nil, false
}
