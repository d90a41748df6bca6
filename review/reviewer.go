package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rubberhq/rubber/config"
	"github.com/rubberhq/rubber/github"
	"github.com/rubberhq/rubber/report"
	"github.com/rubberhq/rubber/storage"
)

// HostingClient is the slice of the hosting API the reviewer needs.
// *github.Client satisfies it.
type HostingClient interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]github.PullRequestFile, error)
	ListIssueComments(ctx context.Context, owner, repo string, number int) ([]github.IssueComment, error)
}

// Reviewer builds the review report for one pull request. It drives the
// diff metrics, the heuristic scanner, and the narrative client per file,
// sequentially in file-list order, and assembles everything into a single
// report document.
type Reviewer struct {
	hosting   HostingClient
	narrative NarrativeClient
	scanner   *Scanner
	store     storage.Store
	cfg       *config.Config
	logger    *slog.Logger
}

// NewReviewer creates a reviewer. narrative and store may be nil: without
// a narrative client reports carry only mechanical analysis, and without
// a store runs are not persisted.
func NewReviewer(hosting HostingClient, narrative NarrativeClient, store storage.Store, cfg *config.Config, logger *slog.Logger) *Reviewer {
	return &Reviewer{
		hosting:   hosting,
		narrative: narrative,
		scanner:   NewScanner(cfg.Review.DisabledRules...),
		store:     store,
		cfg:       cfg,
		logger:    logger,
	}
}

// BuildReport fetches a pull request and renders its review report. Only
// a failed PR metadata fetch is fatal; every other failure degrades into
// an explicit placeholder in the report.
func (r *Reviewer) BuildReport(ctx context.Context, owner, repo string, number int) (string, error) {
	r.logger.Info("building review report", "owner", owner, "repo", repo, "pr", number)

	pr, err := r.fetchPullRequest(ctx, owner, repo, number)
	if err != nil {
		return "", fmt.Errorf("failed to fetch pull request: %w", err)
	}

	doc := report.NewDocument(fmt.Sprintf("PR #%d: %s", pr.Number, pr.Title))
	r.addDescription(doc, pr)

	findings := r.addFiles(ctx, doc, owner, repo, number)
	r.addComments(ctx, doc, owner, repo, number)

	rendered := doc.Render()
	r.storeRun(ctx, owner, repo, number, rendered, findings)

	return rendered, nil
}

func (r *Reviewer) fetchPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	fetchCtx, cancel := r.fetchContext(ctx)
	defer cancel()
	return r.hosting.GetPullRequest(fetchCtx, owner, repo, number)
}

func (r *Reviewer) addDescription(doc *report.Document, pr *github.PullRequest) {
	sec := doc.AddSection("Description:")
	body := strings.TrimSpace(pr.Body)
	if body == "" {
		body = "No description provided."
	}
	sec.AddBoxContent(body)
}

// fileFindings pairs a filename with the findings its patch produced,
// for persistence.
type fileFindings struct {
	file     string
	findings []Finding
}

// addFiles appends the modified-files section and the per-file analyses.
// Returns the findings collected across all analyzed files.
func (r *Reviewer) addFiles(ctx context.Context, doc *report.Document, owner, repo string, number int) []fileFindings {
	sec := doc.AddSection("Modified Files:")

	fetchCtx, cancel := r.fetchContext(ctx)
	files, err := r.hosting.ListPullRequestFiles(fetchCtx, owner, repo, number)
	cancel()
	if err != nil {
		r.logger.Error("failed to fetch PR files", "error", err)
		sec.AddLine("Error fetching PR details.")
		sec.AddLine("Unable to display modified files.")
		return nil
	}

	if len(files) == 0 {
		sec.AddLine("No files modified in this PR.")
		return nil
	}

	sec.AddBoxContent(fileTable(files))

	var collected []fileFindings
	for i := range files {
		f := &files[i]
		if !f.HasPatch() {
			continue
		}
		if r.cfg.ShouldExcludeFile(f.Filename) {
			r.logger.Debug("skipping excluded file", "file", f.Filename)
			continue
		}
		found := r.analyzeFile(ctx, sec, f)
		collected = append(collected, fileFindings{file: f.Filename, findings: found})
	}

	return collected
}

// fileTable formats the fixed-width summary table of changed files.
func fileTable(files []github.PullRequestFile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-50s %-10s %-10s %-10s\n", "Filename", "Status", "Additions", "Deletions")
	for _, f := range files {
		fmt.Fprintf(&b, "%-50s %-10s %-10d %-10d\n", f.Filename, f.Status, f.Additions, f.Deletions)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// analyzeFile appends the diff, metrics, heuristic findings and narrative
// review for one file under its own section node.
func (r *Reviewer) analyzeFile(ctx context.Context, parent *report.Node, f *github.PullRequestFile) []Finding {
	fileSec := parent.AddSection(fmt.Sprintf("Diff for %s:", f.Filename))
	fileSec.AddDiffContent(f.Patch)

	analysis := fileSec.AddSection("Analysis:")

	stats := ComputeStats(f.Patch)
	analysis.AddLine(fmt.Sprintf("Changed %d lines (%d additions, %d deletions)", stats.Total(), stats.Added, stats.Removed))

	findings := r.scanner.Scan(f.Patch)
	for _, finding := range findings {
		analysis.AddLine(fmt.Sprintf("- [%s] %s", finding.Category, finding.Message))
	}

	r.addNarrative(ctx, fileSec, f)

	return findings
}

// addNarrative requests and appends the narrative review. Best-effort: a
// failed call is logged and the section omitted.
func (r *Reviewer) addNarrative(ctx context.Context, fileSec *report.Node, f *github.PullRequestFile) {
	if r.narrative == nil || !r.cfg.Review.NarrativeEnabled() {
		return
	}

	text, err := r.narrative.Review(ctx, f.Patch)
	if err != nil {
		r.logger.Error("narrative review failed", "file", f.Filename, "error", err)
		return
	}

	sections := ParseSections(text, r.cfg.Review.KeepUnclassified)
	if len(sections) == 0 {
		return
	}

	sec := fileSec.AddSection("Claude's Review:")
	for _, s := range sections {
		sec.AddLine(string(s.Kind) + ":")
		sec.AddBoxContent(s.Body)
	}
}

// addComments appends the discussion comments section.
func (r *Reviewer) addComments(ctx context.Context, doc *report.Document, owner, repo string, number int) {
	sec := doc.AddSection(fmt.Sprintf("Comments for PR #%d:", number))

	fetchCtx, cancel := r.fetchContext(ctx)
	comments, err := r.hosting.ListIssueComments(fetchCtx, owner, repo, number)
	cancel()
	if err != nil {
		r.logger.Error("failed to fetch PR comments", "error", err)
		sec.AddLine("Unable to display comments.")
		return
	}

	if len(comments) == 0 {
		sec.AddLine("No comments found for this PR.")
		return
	}

	for _, c := range comments {
		author := "unknown"
		if c.User != nil {
			author = c.User.Login
		}
		sec.AddLine(fmt.Sprintf("Author: %s (at %s)", author, c.CreatedAt))
		sec.AddBoxContent(c.Body)
	}
}

// storeRun persists the rendered report if a store is configured. Storage
// failures never fail the review.
func (r *Reviewer) storeRun(ctx context.Context, owner, repo string, number int, rendered string, findings []fileFindings) {
	if r.store == nil {
		return
	}

	run := &storage.ReviewRun{
		Owner:         owner,
		Repo:          repo,
		PRNumber:      number,
		Report:        rendered,
		FilesReviewed: len(findings),
	}
	for _, ff := range findings {
		for _, f := range ff.findings {
			run.Findings = append(run.Findings, storage.StoredFinding{
				File:     ff.file,
				RuleID:   f.RuleID,
				Category: string(f.Category),
				Message:  f.Message,
			})
		}
	}

	if err := r.store.StoreRun(ctx, run); err != nil {
		r.logger.Error("failed to store review run", "error", err)
	}
}

func (r *Reviewer) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := r.cfg.Review.FetchTimeout.Std()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
