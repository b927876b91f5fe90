package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rationdesk/internal/config"
	"rationdesk/internal/database"
	"rationdesk/internal/model"
	"rationdesk/internal/service"
)

// NewSeedCommand loads the sample pending orders into the remote store.
// Orders that already exist are left untouched.
func NewSeedCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample pending orders into the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.NewDB(cmd.Context(), cfg.DatabaseURI)
			if err != nil {
				return fmt.Errorf("connect to remote store: %w", err)
			}
			defer database.CloseDB(db)

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}

			n, err := service.NewOrderService(db).Seed(cmd.Context(), model.SampleOrders(time.Now()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d orders\n", n)
			return nil
		},
	}
}
