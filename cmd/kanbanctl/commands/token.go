package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/listenupapp/kanban-server/internal/auth"
	"github.com/listenupapp/kanban-server/internal/di/providers"
	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/printer"
	"github.com/listenupapp/kanban-server/internal/service"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <email>",
	Short: "Mint an access token for a user",
	Long: `Mint an access token signed with the server's key.

Without --ttl the token lives as long as the server's configured access token
duration. Only the token is written to stdout so it can be captured:

  TOKEN=$(kanbanctl token alice@example.com)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		u, err := service.NewUserService(e.store, e.log.Logger).GetUserByEmail(cmd.Context(), args[0])
		switch {
		case errors.Is(err, domainerrors.ErrNotFound):
			return printer.Error("User not found", "No user has the email "+args[0]+".",
				"Create it with: kanbanctl user add --email "+args[0])
		case err != nil:
			return printer.Error("Cannot look up user", err.Error())
		}

		key, err := providers.LoadAuthKey(e.cfg)
		if err != nil {
			return printer.Error("Cannot load the signing key", err.Error())
		}
		tokens, err := auth.NewTokenServiceFromKey(key, e.cfg.Auth.AccessTokenDuration)
		if err != nil {
			return printer.Error("Cannot load the signing key", err.Error())
		}

		ttl := tokenTTL
		if ttl <= 0 {
			ttl = tokens.AccessTokenDuration()
		}
		token, err := tokens.GenerateAccessTokenFor(u, ttl)
		if err != nil {
			return printer.Error("Cannot mint token", err.Error())
		}

		printer.Info("%s\n", token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default: server access token duration)")
	rootCmd.AddCommand(tokenCmd)
}
