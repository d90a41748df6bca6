package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFullConfig(t *testing.T) {
	content := []byte(`
github:
  token: ghp_filetoken
  api_url: https://github.example.com/api/v3
anthropic:
  api_key: sk-file
  model: claude-sonnet-4-20250514
  max_tokens: 2048
review:
  exclude:
    - "vendor/**"
    - "*.lock"
  disabled_rules:
    - clone
  keep_unclassified: true
  narrative: false
  fetch_timeout: 45s
storage:
  postgres_dsn: postgres://localhost/rubber
`)

	cfg, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.GitHub.Token != "ghp_filetoken" {
		t.Errorf("unexpected token: %q", cfg.GitHub.Token)
	}
	if cfg.Anthropic.MaxTokens != 2048 {
		t.Errorf("unexpected max_tokens: %d", cfg.Anthropic.MaxTokens)
	}
	if !cfg.Review.KeepUnclassified {
		t.Error("expected keep_unclassified to be true")
	}
	if cfg.Review.NarrativeEnabled() {
		t.Error("expected narrative to be disabled")
	}
	if cfg.Review.FetchTimeout.Std() != 45*time.Second {
		t.Errorf("unexpected fetch_timeout: %s", cfg.Review.FetchTimeout.Std())
	}
	if len(cfg.Review.DisabledRules) != 1 || cfg.Review.DisabledRules[0] != "clone" {
		t.Errorf("unexpected disabled_rules: %v", cfg.Review.DisabledRules)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !cfg.Review.NarrativeEnabled() {
		t.Error("narrative should default to enabled")
	}
	if cfg.Review.KeepUnclassified {
		t.Error("keep_unclassified should default to false")
	}
	if cfg.Anthropic.MaxTokens != 1024 {
		t.Errorf("unexpected default max_tokens: %d", cfg.Anthropic.MaxTokens)
	}
	if cfg.Review.FetchTimeout.Std() != 30*time.Second {
		t.Errorf("unexpected default fetch_timeout: %s", cfg.Review.FetchTimeout.Std())
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("github: [not a mapping"))
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestValidatePartialAppAuth(t *testing.T) {
	_, err := Parse([]byte(`
github:
  app_id: 1234
`))
	if err == nil {
		t.Fatal("expected partial app auth to be rejected")
	}
}

func TestValidateNegativeMaxTokens(t *testing.T) {
	_, err := Parse([]byte(`
anthropic:
  max_tokens: -1
`))
	if err == nil {
		t.Fatal("expected negative max_tokens to be rejected")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Anthropic.MaxTokens != 1024 {
		t.Errorf("expected defaults, got max_tokens %d", cfg.Anthropic.MaxTokens)
	}
}

func TestLoadInvalidFileIsParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("review: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Path != path {
		t.Errorf("unexpected path in error: %q", parseErr.Path)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_envtoken")
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("github:\n  token: ghp_filetoken\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GitHub.Token != "ghp_envtoken" {
		t.Errorf("env should override file token, got %q", cfg.GitHub.Token)
	}
	if cfg.Anthropic.APIKey != "sk-env" {
		t.Errorf("expected env API key, got %q", cfg.Anthropic.APIKey)
	}
}

func TestShouldExcludeFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Review.Exclude = []string{"vendor/**", "*.lock", "docs/*.md"}

	tests := []struct {
		path string
		want bool
	}{
		{"vendor/lib/mod.rs", true},
		{"Cargo.lock", true},
		{"docs/readme.md", true},
		{"src/main.rs", false},
		{"docs/deep/readme.md", false},
	}

	for _, tt := range tests {
		if got := cfg.ShouldExcludeFile(tt.path); got != tt.want {
			t.Errorf("ShouldExcludeFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
