// Package config handles loading and validating the rubber configuration
// file, with environment variable overrides for credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "45s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ParseError indicates a configuration file exists but contains invalid
// content. This is distinct from "file not found", which falls back to
// defaults.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid config at %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Config is the full rubber configuration.
type Config struct {
	GitHub    GitHubConfig    `yaml:"github"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Review    ReviewConfig    `yaml:"review"`
	Storage   StorageConfig   `yaml:"storage"`
}

// GitHubConfig configures the hosting API client.
type GitHubConfig struct {
	// Token is a personal access token. Optional for public repositories.
	Token string `yaml:"token"`
	// APIURL overrides the API endpoint, e.g. for GitHub Enterprise.
	APIURL string `yaml:"api_url"`
	// AppID, InstallationID and PrivateKeyPath switch the client to
	// GitHub App installation auth when all three are set.
	AppID          int64  `yaml:"app_id"`
	InstallationID int64  `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

// UseAppAuth reports whether GitHub App credentials are fully configured.
func (g *GitHubConfig) UseAppAuth() bool {
	return g.AppID != 0 && g.InstallationID != 0 && g.PrivateKeyPath != ""
}

// AnthropicConfig configures the narrative review client.
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// ReviewConfig tunes the review pipeline.
type ReviewConfig struct {
	// Exclude is a list of glob patterns for files to list but not
	// analyze. Example: ["vendor/**", "*.lock"]
	Exclude []string `yaml:"exclude"`
	// DisabledRules lists heuristic rule IDs to skip.
	DisabledRules []string `yaml:"disabled_rules"`
	// KeepUnclassified keeps narrative text that falls outside the
	// recognized section headings instead of dropping it.
	KeepUnclassified bool `yaml:"keep_unclassified"`
	// Narrative toggles the external narrative review call.
	Narrative *bool `yaml:"narrative,omitempty"`
	// FetchTimeout bounds each hosting API call.
	FetchTimeout Duration `yaml:"fetch_timeout"`
}

// NarrativeEnabled reports whether narrative reviews should be requested.
// Defaults to true when unset.
func (r *ReviewConfig) NarrativeEnabled() bool {
	if r.Narrative == nil {
		return true
	}
	return *r.Narrative
}

// StorageConfig configures optional persistence of review runs.
type StorageConfig struct {
	// PostgresDSN enables the PostgreSQL store when non-empty.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			MaxTokens: 1024,
		},
		Review: ReviewConfig{
			FetchTimeout: Duration(30 * time.Second),
		},
	}
}

// Load reads the config file at path. A missing file yields the defaults;
// an unreadable or invalid file is an error. Environment variables
// override credentials in either case.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := DefaultConfig()
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	cfg.applyEnv()
	return cfg, nil
}

// Parse parses a config from YAML content and validates it.
func Parse(content []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays credentials from the environment. Env vars win over
// file values so secrets can stay out of config files.
func (c *Config) applyEnv() {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Anthropic.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_MODEL"); v != "" {
		c.Anthropic.Model = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Storage.PostgresDSN = v
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Anthropic.MaxTokens < 0 {
		return fmt.Errorf("anthropic.max_tokens must not be negative, got %d", c.Anthropic.MaxTokens)
	}
	if c.Review.FetchTimeout < 0 {
		return fmt.Errorf("review.fetch_timeout must not be negative, got %s", c.Review.FetchTimeout.Std())
	}

	partial := c.GitHub.AppID != 0 || c.GitHub.InstallationID != 0 || c.GitHub.PrivateKeyPath != ""
	if partial && !c.GitHub.UseAppAuth() {
		return fmt.Errorf("github app auth requires app_id, installation_id and private_key_path together")
	}
	return nil
}

// ShouldExcludeFile returns true if the file path matches any exclude
// pattern.
func (c *Config) ShouldExcludeFile(path string) bool {
	for _, pattern := range c.Review.Exclude {
		// Handle ** patterns by checking prefix and suffix around them.
		if strings.Contains(pattern, "**") {
			prefix := strings.Split(pattern, "**")[0]
			if prefix != "" && strings.HasPrefix(path, prefix) {
				suffix := strings.Split(pattern, "**")[1]
				if suffix == "" || strings.HasSuffix(path, strings.TrimPrefix(suffix, "/")) {
					return true
				}
			}
			if prefix != "" && strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")) {
				return true
			}
		}

		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}

		// Also try matching just the filename for patterns like "*.lock".
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}
	return false
}

// DefaultPath returns the default config file location,
// $XDG_CONFIG_HOME/rubber/config.yml or ~/.config/rubber/config.yml.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "rubber.yml"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "rubber", "config.yml")
}
