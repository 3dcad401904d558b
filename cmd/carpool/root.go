package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"carpool/internal/config"
	"carpool/internal/logger"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "carpool",
		Short: "In-memory key/value cache with TTL expiration",
		Long: `carpool keeps string values in memory and expires them after a
configurable TTL. Clients talk to it one command per line:

  get <key> | set <key> <value> | del <key> | prune | reset | count | size | keys`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newReplCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "carpool version: %s\n", version)
		},
	}
}

// setupLogger builds the configured logger, installs it globally and returns
// a context carrying it.
func setupLogger(ctx context.Context, cfg config.LoggingConfig) (context.Context, *logger.Logger, error) {
	log, err := logger.NewLogger(cfg.GetEnvironment(), cfg.Level)
	if err != nil {
		return ctx, nil, fmt.Errorf("init logger: %w", err)
	}
	logger.SetGlobalLogger(log)
	return logger.NewContext(ctx, log), log, nil
}
