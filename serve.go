package main

import (
	"github.com/getclawkit/clawkit/internal/probe"
	"github.com/getclawkit/clawkit/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	addr := config.ListenAddr
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the skills, status, cost and config API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			checker, err := newStatusChecker(logger, true)
			if err != nil {
				return err
			}
			prober := probe.New()
			prober.Timeout = config.ProbeTimeout

			srv := server.New(server.Options{
				Store:        store,
				Status:       checker,
				Prober:       prober,
				Logger:       logger,
				Version:      Version,
				SyncAPIKey:   config.SyncAPIKey,
				Models:       config.models(),
				CostDefaults: config.Cost,
			})
			if config.SyncAPIKey == "" {
				logger.Warn("sync-api-key is not set, skill sync is disabled")
			}
			if err := srv.ListenAndServe(cmd.Context(), addr); err != nil {
				return clawError{err, "The server stopped."}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", addr, stdoutStyles().FlagDesc.Render(help["listen-addr"]))
	return cmd
}
