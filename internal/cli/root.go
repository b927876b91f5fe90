package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"rationdesk/internal/config"
)

// NewRootCommand creates the rationdesk command tree. Settings shared by all
// subcommands live on cfg and are resolved before any subcommand runs.
func NewRootCommand() *cobra.Command {
	cfg := &config.Config{}

	cmd := &cobra.Command{
		Use:   "rationdesk",
		Short: "rationdesk - ration order admin backend",
		Long: `Admin backend for ration-distribution orders.

Orders are reviewed against a remote Postgres store; every change is applied
to a local store first and synchronised to the remote by a background worker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			if err := cfg.ApplyEnv(); err != nil {
				return err
			}
			slog.SetDefault(cfg.NewLogger(cmd.ErrOrStderr()))
			return nil
		},
	}

	cfg.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCommand(cfg))
	cmd.AddCommand(NewMigrateCommand(cfg))
	cmd.AddCommand(NewSeedCommand(cfg))
	cmd.AddCommand(NewSyncCommand(cfg))
	cmd.AddCommand(NewAdminCommand(cfg))

	return cmd
}
