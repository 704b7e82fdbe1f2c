package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"coderef/internal/config"
	"coderef/internal/logging"
	"coderef/internal/storage"
	"coderef/internal/version"
)

var (
	repoRootFlag  string
	logFormatFlag string
	logLevelFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "coderef",
	Short: "coderef - code reference resolution and drift detection",
	Long: `coderef maintains canonical references to code elements across scans.
It parses and generates reference tags, indexes scanned elements, tracks
dependency edges between them, and detects how references drift as the
codebase changes underneath them.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("coderef version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoRootFlag, "repo-root", ".", "Repository root directory")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format (json, human)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
}

// mustLoadConfig loads configuration or exits.
// Precedence for logging settings: CLI flag > config file.
func mustLoadConfig() *config.Config {
	cfg, err := config.LoadConfig(repoRootFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if logFormatFlag != "" {
		cfg.Logging.Format = logFormatFlag
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	// The config file was resolved relative to --repo-root, so that is
	// the effective root regardless of what the file records.
	cfg.RepoRoot = repoRootFlag
	return cfg
}

// newLogger creates a logger from the effective configuration
func newLogger(cfg *config.Config) *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.LogLevel(cfg.Logging.Level),
	})
}

// loadManifest loads the scanner manifest for the current repo root
func loadManifest() (*config.Manifest, error) {
	return config.LoadManifest(repoRootFlag)
}

// mustOpenStore opens the snapshot store or exits
func mustOpenStore(cfg *config.Config, logger *logging.Logger) *storage.Store {
	store, err := storage.Open(cfg.RepoRoot, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening snapshot store: %v\n", err)
		os.Exit(1)
	}
	return store
}
