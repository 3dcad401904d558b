package main

import (
	"github.com/spf13/cobra"

	"carpool/internal/cache"
	"carpool/internal/config"
	"carpool/internal/logger"
	"carpool/internal/server"
)

func newReplCmd() *cobra.Command {
	var (
		cfgPath string
		ttl     uint64
	)

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Run commands from stdin against a local cache",
		Long: `repl reads one command per line from stdin and prints the responses.
The cache lives only for the duration of the session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The terminal belongs to the session; stay quiet unless a logger was installed.
			log, err := logger.FromContext(cmd.Context())
			if err != nil {
				log = logger.NewNop()
			}
			ctx := logger.NewContext(cmd.Context(), log)

			if cfgPath != "" {
				cfg, err := config.Load(ctx, cfgPath)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("ttl") {
					ttl = cfg.Cache.TTLSeconds()
				}
			}

			d := server.NewDispatcher(cache.New(cache.Config{TTL: ttl}), nil, log)
			return d.ServeStream(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "optional TOML config file for cache.ttl")
	cmd.Flags().Uint64Var(&ttl, "ttl", 60, "entry TTL in seconds")
	return cmd
}
