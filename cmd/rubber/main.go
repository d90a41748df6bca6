// Command rubber reviews GitHub pull requests from the terminal. Given an
// owner and repository it lists the most recent PRs and prompts for one to
// review; given a PR number it reviews that PR directly.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rubberhq/rubber/anthropic"
	"github.com/rubberhq/rubber/config"
	"github.com/rubberhq/rubber/github"
	"github.com/rubberhq/rubber/review"
	"github.com/rubberhq/rubber/storage"
	"github.com/rubberhq/rubber/storage/postgres"
)

var (
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:           "rubber <owner> <repo> [pr]",
		Short:         "Review GitHub pull requests with heuristics and Claude",
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runReview,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check that the configured credentials work",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runReview(cmd *cobra.Command, args []string) error {
	logger := newLogger(logLevel)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	owner, repo := args[0], args[1]

	hosting, err := newHostingClient(cfg)
	if err != nil {
		return err
	}

	var narrative review.NarrativeClient
	if cfg.Anthropic.APIKey != "" {
		narrative = review.NewClaudeClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, logger)
	} else {
		logger.Warn("no Anthropic API key configured, skipping narrative reviews")
	}

	var store storage.Store
	if cfg.Storage.PostgresDSN != "" {
		pg, err := postgres.NewFromDSN(cfg.Storage.PostgresDSN)
		if err != nil {
			logger.Warn("failed to connect to storage, runs will not be persisted", "error", err)
		} else {
			defer pg.Close()
			if err := pg.Migrate(cmd.Context()); err != nil {
				logger.Warn("failed to migrate storage", "error", err)
			} else {
				store = pg
			}
		}
	}

	reviewer := review.NewReviewer(hosting, narrative, store, cfg, logger)
	ctx := cmd.Context()

	if len(args) == 3 {
		number, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid PR number: %s", args[2])
		}
		return buildAndPrint(ctx, reviewer, owner, repo, number)
	}

	return runInteractive(ctx, reviewer, hosting, owner, repo, logger)
}

// runInteractive lists recent PRs and reviews the one the user picks.
func runInteractive(ctx context.Context, reviewer *review.Reviewer, hosting *github.Client, owner, repo string, logger *slog.Logger) error {
	lister := review.NewLister(hosting, logger)
	listing, prs, err := lister.ListRecent(ctx, owner, repo)
	if err != nil {
		return err
	}
	fmt.Print(listing)
	if len(prs) == 0 {
		return nil
	}

	fmt.Print("\nEnter PR number to view details (or 'q' to quit): ")
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	input = strings.TrimSpace(input)
	if strings.EqualFold(input, "q") {
		return nil
	}

	number, err := strconv.Atoi(input)
	if err != nil {
		return fmt.Errorf("invalid PR number: %s", input)
	}
	if _, ok := review.FindPR(prs, number); !ok {
		fmt.Printf("PR #%d not found in the current list.\n", number)
		return nil
	}

	return buildAndPrint(ctx, reviewer, owner, repo, number)
}

func buildAndPrint(ctx context.Context, reviewer *review.Reviewer, owner, repo string, number int) error {
	report, err := reviewer.BuildReport(ctx, owner, repo, number)
	if err != nil {
		return err
	}
	fmt.Print(report)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.GitHub.Token == "" && !cfg.GitHub.UseAppAuth() {
		fmt.Println("GitHub: no credentials configured (public repositories only)")
	} else {
		fmt.Println("GitHub: credentials configured")
	}

	if cfg.Anthropic.APIKey == "" {
		fmt.Println("Anthropic: no API key configured")
		return nil
	}

	if err := anthropic.ValidateAPIKey(cmd.Context(), cfg.Anthropic.APIKey); err != nil {
		return fmt.Errorf("Anthropic key ending in %s: %w", anthropic.ExtractKeyHint(cfg.Anthropic.APIKey), err)
	}
	fmt.Printf("Anthropic: key ending in %s is valid\n", anthropic.ExtractKeyHint(cfg.Anthropic.APIKey))
	return nil
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

func newHostingClient(cfg *config.Config) (*github.Client, error) {
	var opts []github.Option
	if cfg.GitHub.APIURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.GitHub.APIURL))
	}

	if cfg.GitHub.UseAppAuth() {
		return github.NewAppClient(cfg.GitHub.AppID, cfg.GitHub.InstallationID, cfg.GitHub.PrivateKeyPath, opts...)
	}

	if cfg.GitHub.Token != "" {
		opts = append(opts, github.WithToken(cfg.GitHub.Token))
	}
	return github.NewClient(opts...), nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
