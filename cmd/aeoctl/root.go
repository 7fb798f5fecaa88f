package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/aeo-tracker/internal/bootstrap"
	"github.com/bryanwahyu/aeo-tracker/internal/config"
	"github.com/bryanwahyu/aeo-tracker/internal/logging"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "aeoctl",
	Short: "Operate the AEO visibility tracker",
	Long: `aeoctl runs visibility checks and seeds demo data against the
database configured for the API server (config.yaml, .env, environment).

Examples:
  aeoctl checks run --project 6f1c...       # probe every keyword on every engine
  aeoctl checks run --all                   # same as the scheduled job
  aeoctl seed --user <uid> --days 14        # create the Acme Widgets demo project`,
	SilenceUsage: true,
}

func init() {
	defaultPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// env is what every subcommand needs: config, logger and open stores.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	stores *bootstrap.Stores
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, true)
	if err != nil {
		return nil, err
	}
	stores, err := bootstrap.OpenStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, stores: stores}, nil
}

func (e *env) close() {
	_ = e.stores.Close()
	_ = e.logger.Sync()
}
