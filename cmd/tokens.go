package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vibast-solutions/ms-go-clubs/app/service"
	"github.com/vibast-solutions/ms-go-clubs/config"

	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Maintain stored session, verification and reset tokens",
}

var tokensPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, cfg *config.Config, db *sql.DB) error {
			// purging sends no mail
			authService := service.NewAuthService(db, service.NewTokenIssuer(cfg), &service.LogMailer{}, cfg)

			result, err := authService.PurgeExpired(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "active tokens:       %d\n", result.ActiveTokens)
			fmt.Fprintf(out, "verification tokens: %d\n", result.VerificationTokens)
			fmt.Fprintf(out, "password resets:     %d\n", result.PasswordResets)
			return nil
		})
	},
}

func init() {
	tokensCmd.AddCommand(tokensPurgeCmd)
	rootCmd.AddCommand(tokensCmd)
}
