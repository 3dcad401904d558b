package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"carpool/internal/config"
	"carpool/internal/server"
)

func newServeCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cache over TCP",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Signal-aware context is the root of ownership for the listener,
			// the janitor and the admin server.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx, cfgPath)
			if err != nil {
				return err
			}

			ctx, log, err := setupLogger(ctx, cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			return server.NewApp(cfg, log).Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "path to the TOML config file")
	return cmd
}
