package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rationdesk/internal/config"
	"rationdesk/internal/database"
	"rationdesk/internal/service"
	"rationdesk/internal/syncstatus"
	"rationdesk/internal/worker"
)

func NewSyncCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Drain the local outbox into the remote store once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := database.NewDB(ctx, cfg.DatabaseURI)
			if err != nil {
				return fmt.Errorf("connect to remote store: %w", err)
			}
			defer database.CloseDB(db)

			local, err := openLocal(ctx, cfg)
			if err != nil {
				return err
			}
			defer local.Close()

			status := syncstatus.New()
			w := worker.NewSyncWorker(local, service.NewOrderService(db), status, worker.Options{
				BatchSize: cfg.SyncBatch,
				Timeout:   cfg.RemoteTimeout,
			})

			applied, err := w.DrainOnce(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d, pending %d\n", applied, status.Snapshot().Pending)
			return err
		},
	}
}
