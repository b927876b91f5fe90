package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rationdesk/internal/config"
	"rationdesk/internal/database"
)

func NewMigrateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.NewDB(cmd.Context(), cfg.DatabaseURI)
			if err != nil {
				return fmt.Errorf("connect to remote store: %w", err)
			}
			defer database.CloseDB(db)

			return database.Migrate(cmd.Context(), db)
		},
	}
}
