package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/chorus/internal/adapter"
	"github.com/joescharf/chorus/internal/output"
	"github.com/joescharf/chorus/internal/store"
)

// Build metadata, set from main via goreleaser ldflags.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	dryRun  bool
)

// errRequestChanges signals that the run completed but the consensus was
// request_changes. It maps to exit code 1; every other error exits 2.
var errRequestChanges = errors.New("changes requested")

var rootCmd = &cobra.Command{
	Use:   "chorus",
	Short: "Multi-reviewer code review orchestrator",
	Long: `chorus partitions a change set into domain chapters, fans each chapter
out to its configured reviewers in parallel, and synthesizes every
terminal result into one deterministic governance summary.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go. Exit codes: 0 for
// approve or comment, 1 for request_changes, 2 for operational failures.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errRequestChanges) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/chorus/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(2)
		}

		configDir := filepath.Join(home, ".config", "chorus")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CHORUS")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "chorus")

	viper.SetDefault("state_dir", defaultConfigDir)
	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "chorus.db"))
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", adapter.DefaultAnthropicModel)
	viper.SetDefault("review.job_timeout", 120*time.Second)
	viper.SetDefault("review.run_timeout", 10*time.Minute)
	viper.SetDefault("review.max_file_bytes", 16*1024)
	viper.SetDefault("review.max_excerpt_bytes", 128*1024)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// The store is opened lazily so config/version commands run without a db.
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// buildRegistry constructs the reviewer registry from the `reviewers:`
// section of the config file. With no reviewers configured, every reviewer
// id the manifest references resolves to the rules backend, so chorus works
// out of the box without API keys.
func buildRegistry() (*adapter.Registry, func(string) bool, error) {
	var cfgs map[string]adapter.Config
	if err := viper.UnmarshalKey("reviewers", &cfgs); err != nil {
		return nil, nil, fmt.Errorf("parse reviewers config: %w", err)
	}

	// Fill adapter-level defaults from the top-level anthropic section.
	for id, cfg := range cfgs {
		if cfg.Backend == "anthropic" {
			if cfg.APIKey == "" {
				cfg.APIKey = viper.GetString("anthropic.api_key")
			}
			if cfg.Model == "" {
				cfg.Model = viper.GetString("anthropic.model")
			}
			cfgs[id] = cfg
		}
	}

	reg, err := adapter.FromConfigs(cfgs)
	if err != nil {
		return nil, nil, err
	}

	implicitRules := len(cfgs) == 0
	registered := func(id string) bool {
		if reg.Known(id) {
			return true
		}
		if implicitRules {
			reg.Register(id, adapter.NewRules(id))
			return true
		}
		return false
	}
	return reg, registered, nil
}
