package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"rationdesk/internal/config"
	"rationdesk/internal/database"
	"rationdesk/internal/model"
	"rationdesk/internal/service"
)

func NewAdminCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage dashboard accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "grant <email>",
		Short: "Give an existing account the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.NewDB(cmd.Context(), cfg.DatabaseURI)
			if err != nil {
				return fmt.Errorf("connect to remote store: %w", err)
			}
			defer database.CloseDB(db)

			err = service.NewAuthService(db).GrantRole(cmd.Context(), args[0], model.RoleAdmin)
			if errors.Is(err, service.ErrAdminNotFound) {
				return fmt.Errorf("no account registered for %s", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", args[0])
			return nil
		},
	})

	return cmd
}
