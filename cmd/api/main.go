package main

import (
	"fmt"
	"os"

	"pamazon/internal/config"
	"pamazon/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "pamazon-api",
		Short: "Pamazon storefront catalog API",
		Long: `Pamazon serves the storefront product catalog over HTTP.

Available commands:
  serve    - Run migrations and start the HTTP API (default)
  migrate  - Apply or inspect database migrations

Examples:
  pamazon-api                       # same as "serve"
  pamazon-api serve --migrations-dir ./migrations
  pamazon-api migrate status`,
		SilenceUsage: true,
	}

	serve := newServeCommand()
	root.RunE = serve.RunE
	root.AddCommand(serve)
	root.AddCommand(newMigrateCommand())
	return root
}

// bootstrap loads configuration and builds the process logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

// migrationsDir prefers the flag value over the configured directory
func migrationsDir(cfg *config.Config, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.Catalog.MigrationsDir
}
