package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	superuserEmail    string
	superuserPassword string
	superuserType     string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create a staff account with every permission",
	Example: `  swapmart createsuperuser --email admin@example.com --password s3cret
  SWAPMART_SUPERUSER_PASSWORD=s3cret swapmart createsuperuser --email admin@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if superuserEmail == "" {
			return errors.New("--email is required")
		}
		password := superuserPassword
		if password == "" {
			password = os.Getenv("SWAPMART_SUPERUSER_PASSWORD")
		}
		if len(password) < 5 {
			return errors.New("password must be at least 5 characters")
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.server.Migrate(); err != nil {
			return err
		}

		user, err := a.sessMgr.CreateSuperuser(cmd.Context(), superuserEmail, password, superuserType)
		if err != nil {
			return err
		}
		logger.Info("superuser created", zap.String("user_id", user.ID), zap.String("email", user.Email))
		fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created\n", user.Email)
		return nil
	},
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superuserEmail, "email", "", "email address of the account")
	createSuperuserCmd.Flags().StringVar(&superuserPassword, "password", "", "password (defaults to $SWAPMART_SUPERUSER_PASSWORD)")
	createSuperuserCmd.Flags().StringVar(&superuserType, "user-type", "Admin", "user type assigned to the account")
}
