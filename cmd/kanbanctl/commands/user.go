package commands

import (
	"errors"

	"github.com/spf13/cobra"

	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/printer"
	"github.com/listenupapp/kanban-server/internal/service"
)

var (
	userEmail string
	userName  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Provision a user",
	Example: `  kanbanctl user add --email alice@example.com --name Alice`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		users := service.NewUserService(e.store, e.log.Logger)
		u, err := users.CreateUser(cmd.Context(), service.CreateUserRequest{Email: userEmail, Name: userName})
		switch {
		case errors.Is(err, domainerrors.ErrAlreadyExists):
			return printer.Error("User already exists", err.Error(),
				"Mint a token for the existing account with: kanbanctl token "+userEmail)
		case err != nil:
			return printer.Error("Cannot create user", err.Error())
		}

		printer.Success("Created user %s\n", u.Email)
		printer.Detail("  id:   %s\n  name: %s\n", u.ID, u.DisplayName())
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		users, err := service.NewUserService(e.store, e.log.Logger).ListUsers(cmd.Context())
		if err != nil {
			return printer.Error("Cannot list users", err.Error())
		}
		if len(users) == 0 {
			printer.Warning("No users yet. Add one with: kanbanctl user add\n")
			return nil
		}

		for _, u := range users {
			printer.Info("%-24s %-32s %s\n", u.ID, u.Email, u.Name)
		}
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "Email address (unique, case-insensitive)")
	userAddCmd.Flags().StringVar(&userName, "name", "", "Display name")
	_ = userAddCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userAddCmd, userListCmd)
	rootCmd.AddCommand(userCmd)
}
