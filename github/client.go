package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
)

const defaultBaseURL = "https://api.github.com"

// userAgent is sent on every request; GitHub rejects requests without one.
const userAgent = "rubber"

// Client provides methods to interact with the GitHub API. It supports
// two authentication modes: a personal access token (the default) and a
// GitHub App installation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates requests with a personal access token. An empty
// token leaves requests unauthenticated, which works for public
// repositories at a much lower rate limit.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithBaseURL points the client at a different API endpoint, such as a
// GitHub Enterprise instance or a test server.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new GitHub API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewAppClient creates a client authenticated as a GitHub App
// installation. The private key is read from keyPath in PEM form.
func NewAppClient(appID, installationID int64, keyPath string, opts ...Option) (*Client, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", keyPath, err)
	}
	transport, err := ghinstallation.New(http.DefaultTransport, appID, installationID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation transport: %w", err)
	}

	c := NewClient(opts...)
	c.httpClient = &http.Client{Transport: transport, Timeout: 30 * time.Second}
	c.token = "" // the transport injects credentials
	return c, nil
}

// GetPullRequest fetches a pull request by number. A missing PR surfaces
// as ErrNotFound.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, number)

	var pr PullRequest
	if err := c.getJSON(ctx, "failed to fetch pull request", u, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// ListPullRequests fetches the most recently created pull requests for a
// repository, open or closed, newest first.
func (c *Client) ListPullRequests(ctx context.Context, owner, repo string, perPage int) ([]PullRequest, error) {
	params := url.Values{}
	params.Set("state", "all")
	params.Set("sort", "created")
	params.Set("direction", "desc")
	params.Set("per_page", fmt.Sprintf("%d", perPage))

	u := fmt.Sprintf("%s/repos/%s/%s/pulls?%s", c.baseURL, owner, repo, params.Encode())

	var prs []PullRequest
	if err := c.getJSON(ctx, "failed to list pull requests", u, &prs); err != nil {
		return nil, err
	}
	return prs, nil
}

// ListPullRequestFiles fetches the list of files changed in a pull
// request, including per-file patch text where GitHub provides it.
func (c *Client) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]PullRequestFile, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files", c.baseURL, owner, repo, number)

	var files []PullRequestFile
	if err := c.getJSON(ctx, "failed to fetch files", u, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// ListIssueComments fetches the discussion comments on a pull request.
// PR discussion comments live on the issues endpoint, not the pulls one.
func (c *Client) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]IssueComment, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, number)

	var comments []IssueComment
	if err := c.getJSON(ctx, "failed to fetch comments", u, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// CountIssueComments returns the number of discussion comments on a pull
// request.
func (c *Client) CountIssueComments(ctx context.Context, owner, repo string, number int) (int, error) {
	comments, err := c.ListIssueComments(ctx, owner, repo, number)
	if err != nil {
		return 0, err
	}
	return len(comments), nil
}

// getJSON performs a GET request and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, op, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apiError(op, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
