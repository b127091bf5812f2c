package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nv0110/bosstracker/internal/repository"
	"github.com/nv0110/bosstracker/internal/services"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a bearer token for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		name, _ := cmd.Flags().GetString("name")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		ctx := cmd.Context()
		_, db, err := setup(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		created, rawToken, err := services.NewTokenService(repository.NewAPITokenRepository(db)).Create(ctx, userID, name, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "id:    %s\ntoken: %s\n", created.ID, rawToken)
		if created.ExpiresAt != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "expires: %s\n", created.ExpiresAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenCreateCmd)
	tokenCreateCmd.Flags().String("user", "", "user id the token authenticates as")
	tokenCreateCmd.Flags().String("name", "", "label for the token")
	tokenCreateCmd.Flags().Duration("ttl", 0, "lifetime of the token, 0 for no expiry")
	tokenCreateCmd.MarkFlagRequired("user")
	tokenCreateCmd.MarkFlagRequired("name")
}
