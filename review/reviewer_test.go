package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubberhq/rubber/config"
	"github.com/rubberhq/rubber/github"
	"github.com/rubberhq/rubber/storage"
)

type fakeHosting struct {
	pr          *github.PullRequest
	prErr       error
	files       []github.PullRequestFile
	filesErr    error
	comments    []github.IssueComment
	commentsErr error
}

func (f *fakeHosting) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	return f.pr, f.prErr
}

func (f *fakeHosting) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]github.PullRequestFile, error) {
	return f.files, f.filesErr
}

func (f *fakeHosting) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]github.IssueComment, error) {
	return f.comments, f.commentsErr
}

type fakeNarrative struct {
	text  string
	err   error
	calls int
}

func (f *fakeNarrative) Review(ctx context.Context, patch string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeStore struct {
	runs []*storage.ReviewRun
	err  error
}

func (f *fakeStore) StoreRun(ctx context.Context, run *storage.ReviewRun) error {
	f.runs = append(f.runs, run)
	return f.err
}

func (f *fakeStore) ListRuns(ctx context.Context, owner, repo string, prNumber int) ([]*storage.ReviewRun, error) {
	return f.runs, nil
}

func testPR() *github.PullRequest {
	return &github.PullRequest{
		Number: 42,
		Title:  "Add retry logic",
		Body:   "Retries transient failures.",
		State:  "open",
	}
}

func newTestReviewer(h HostingClient, n NarrativeClient, s storage.Store, cfg *config.Config) *Reviewer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return NewReviewer(h, n, s, cfg, discardLogger())
}

func TestBuildReportEndToEnd(t *testing.T) {
	hosting := &fakeHosting{
		pr: testPR(),
		files: []github.PullRequestFile{
			{
				Filename:  "src/main.rs",
				Status:    "modified",
				Additions: 1,
				Patch:     "@@ -0,0 +1 @@\n+let x = foo().unwrap();",
			},
		},
		comments: []github.IssueComment{
			{Body: "LGTM", User: &github.User{Login: "octocat"}, CreatedAt: "2024-01-02T03:04:05Z"},
		},
	}
	narrative := &fakeNarrative{text: "## Summary\nSmall change.\n## Feedback\n- handle the error"}
	store := &fakeStore{}

	r := newTestReviewer(hosting, narrative, store, nil)
	got, err := r.BuildReport(context.Background(), "acme", "widgets", 42)
	require.NoError(t, err)

	assert.Contains(t, got, "PR #42: Add retry logic")
	assert.Contains(t, got, "Retries transient failures.")
	assert.Contains(t, got, "Diff for src/main.rs:")
	assert.Contains(t, got, "Changed 1 lines (1 additions, 0 deletions)")
	assert.Contains(t, got, "Replace unwrap() calls with proper error handling")
	assert.Contains(t, got, "Claude's Review:")
	assert.Contains(t, got, "Summary:")
	assert.Contains(t, got, "Small change.")
	assert.Contains(t, got, "Author: octocat (at 2024-01-02T03:04:05Z)")
	assert.Contains(t, got, "LGTM")
	assert.Equal(t, 1, narrative.calls)

	require.Len(t, store.runs, 1)
	run := store.runs[0]
	assert.Equal(t, "acme", run.Owner)
	assert.Equal(t, 42, run.PRNumber)
	assert.Equal(t, 1, run.FilesReviewed)
	require.NotEmpty(t, run.Findings)
	assert.Equal(t, "src/main.rs", run.Findings[0].File)
	assert.Equal(t, "unwrap", run.Findings[0].RuleID)
}

func TestBuildReportPRFetchIsFatal(t *testing.T) {
	hosting := &fakeHosting{prErr: errors.New("boom")}

	r := newTestReviewer(hosting, nil, nil, nil)
	_, err := r.BuildReport(context.Background(), "acme", "widgets", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch pull request")
}

func TestBuildReportFilesFetchDegrades(t *testing.T) {
	hosting := &fakeHosting{
		pr:       testPR(),
		filesErr: errors.New("boom"),
	}

	r := newTestReviewer(hosting, nil, nil, nil)
	got, err := r.BuildReport(context.Background(), "acme", "widgets", 42)
	require.NoError(t, err)

	assert.Contains(t, got, "Error fetching PR details.")
	assert.Contains(t, got, "Unable to display modified files.")
	assert.Contains(t, got, "No comments found for this PR.")
}

func TestBuildReportEmptyFilesAndComments(t *testing.T) {
	hosting := &fakeHosting{pr: testPR()}

	r := newTestReviewer(hosting, nil, nil, nil)
	got, err := r.BuildReport(context.Background(), "acme", "widgets", 42)
	require.NoError(t, err)

	assert.Contains(t, got, "No files modified in this PR.")
	assert.Contains(t, got, "No comments found for this PR.")
}

func TestBuildReportCommentsFetchDegrades(t *testing.T) {
	hosting := &fakeHosting{
		pr:          testPR(),
		commentsErr: errors.New("boom"),
	}

	r := newTestReviewer(hosting, nil, nil, nil)
	got, err := r.BuildReport(context.Background(), "acme", "widgets", 42)
	require.NoError(t, err)

	assert.Contains(t, got, "Unable to display comments.")
}

func TestBuildReportMissingDescription(t *testing.T) {
	pr := testPR()
	pr.Body = "  \n"
	hosting := &fakeHosting{pr: pr}

	r := newTestReviewer(hosting, nil, nil, nil)
	got, err := r.BuildReport(context.Background(), "acme", "widgets", 42)
	require.NoError(t, err)

	assert.Contains(t, got, "No description provided.")
}

func TestBuildReportSkipsExcludedFiles(t *testing.T) {
	hosting := &fakeHosting{
		pr: testPR(),
		files: []github.PullRequestFile{
			{Filename: "Cargo.lock", Status: "modified", Patch: "@@ -0,0 +1 @@\n+foo"},
			{Filename: "src/lib.rs", Status: "modified", Patch: "@@ -0,0 +1 @@\n+bar"},
		},
	}
	cfg := config.DefaultConfig()
	cfg.Review.Exclude = []string{"*.lock"}

	r := newTestReviewer(hosting, nil, nil, cfg)
	got, err := r.BuildReport(context.Background(), "acme", "widgets", 42)
	require.NoError(t, err)

	// Listed in the table, but no analysis section.
	assert.Contains(t, got, "Cargo.lock")
	assert.NotContains(t, got, "Diff for Cargo.lock:")
	assert.Contains(t, got, "Diff for src/lib.rs:")
}

func TestBuildReportSkipsFilesWithoutPatch(t *testing.T) {
	hosting := &fakeHosting{
		pr: testPR(),
		files: []github.PullRequestFile{
			{Filename: "logo.png", Status: "added"},
		},
	}

	r := newTestReviewer(hosting, nil, nil, nil)
	got, err := r.BuildReport(context.Background(), "acme", "widgets", 42)
	require.NoError(t, err)

	assert.Contains(t, got, "logo.png")
	assert.NotContains(t, got, "Diff for logo.png:")
}

func TestBuildReportNarrativeFailureDegrades(t *testing.T) {
	hosting := &fakeHosting{
		pr: testPR(),
		files: []github.PullRequestFile{
			{Filename: "src/lib.rs", Status: "modified", Patch: "@@ -0,0 +1 @@\n+bar"},
		},
	}
	narrative := &fakeNarrative{err: errors.New("api down")}

	r := newTestReviewer(hosting, narrative, nil, nil)
	got, err := r.BuildReport(context.Background(), "acme", "widgets", 42)
	require.NoError(t, err)

	assert.Contains(t, got, "Diff for src/lib.rs:")
	assert.NotContains(t, got, "Claude's Review:")
}

func TestBuildReportNarrativeDisabled(t *testing.T) {
	hosting := &fakeHosting{
		pr: testPR(),
		files: []github.PullRequestFile{
			{Filename: "src/lib.rs", Status: "modified", Patch: "@@ -0,0 +1 @@\n+bar"},
		},
	}
	narrative := &fakeNarrative{text: "## Summary\nFine."}

	cfg := config.DefaultConfig()
	disabled := false
	cfg.Review.Narrative = &disabled

	r := newTestReviewer(hosting, narrative, nil, cfg)
	got, err := r.BuildReport(context.Background(), "acme", "widgets", 42)
	require.NoError(t, err)

	assert.Equal(t, 0, narrative.calls)
	assert.NotContains(t, got, "Claude's Review:")
}

func TestBuildReportStoreFailureIsNotFatal(t *testing.T) {
	hosting := &fakeHosting{pr: testPR()}
	store := &fakeStore{err: errors.New("db down")}

	r := newTestReviewer(hosting, nil, store, nil)
	got, err := r.BuildReport(context.Background(), "acme", "widgets", 42)
	require.NoError(t, err)
	assert.True(t, strings.Contains(got, "PR #42"))
}

func TestFileTableAlignment(t *testing.T) {
	files := []github.PullRequestFile{
		{Filename: "a.rs", Status: "modified", Additions: 3, Deletions: 1},
	}

	got := fileTable(files)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Filename")
	assert.Contains(t, lines[0], "Deletions")
	assert.Contains(t, lines[1], "a.rs")
	assert.Contains(t, lines[1], "modified")
}
