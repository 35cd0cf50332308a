// Package cli implements the clickdq command tree.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xtxerr/clickdq/internal/config"
	"github.com/xtxerr/clickdq/internal/logging"
	"github.com/xtxerr/clickdq/internal/store"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "clickdq",
	Short: "Clickstream data-quality pipeline",
	Long: `clickdq ingests monthly clickstream extracts into a partitioned store,
computes per-month data-quality metrics, and evaluates them against the
previous month's baseline to detect SLA violations.

Each stage is independently invokable for a given month and safe to re-run.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initConfig()
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.yaml if present)")
	rootCmd.PersistentFlags().String("db", "", "database path (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().Bool("log-json", false, "JSON log output (overrides config)")
}

// initConfig loads configuration and initializes logging. Invalid
// configuration fails here, before any command touches a file or the
// database.
func initConfig() error {
	var err error
	switch {
	case cfgFile != "":
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
	default:
		if _, statErr := os.Stat("config.yaml"); statErr == nil {
			cfg, err = config.Load("config.yaml")
			if err != nil {
				return err
			}
		} else {
			cfg = config.DefaultConfig()
		}
	}

	if v, _ := rootCmd.PersistentFlags().GetString("db"); v != "" {
		cfg.Database.Path = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("log-json"); v {
		cfg.Logging.JSON = true
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.JSON)
	return nil
}

// openStore opens the configured store, creating the database directory
// if needed.
func openStore() (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	storeCfg := store.DefaultConfig()
	storeCfg.Path = cfg.Database.Path
	storeCfg.MaxOpenConns = cfg.Database.MaxOpenConns
	storeCfg.MaxIdleConns = cfg.Database.MaxIdleConns
	storeCfg.QueryTimeout = cfg.Database.QueryTimeout

	return store.Open(storeCfg)
}
