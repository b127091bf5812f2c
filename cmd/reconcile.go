package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nv0110/bosstracker/internal/config"
	"github.com/nv0110/bosstracker/internal/repository"
	"github.com/nv0110/bosstracker/internal/services"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Migrate legacy account data and remove orphaned character data",
	Long: `reconcile runs the same load flow the API runs on sign-in: legacy blobs are
migrated and written back, the current week entry is created, and clear status
or pitched items for deleted characters are removed. It is safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		all, _ := cmd.Flags().GetBool("all")
		if (userID == "") == !all {
			return errors.New("exactly one of --user or --all is required")
		}

		ctx := cmd.Context()
		cfg, db, err := setup(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		userIDs := []string{userID}
		if all {
			userIDs, err = repository.NewUserDataRepository(db).ListUserIDs(ctx)
			if err != nil {
				return fmt.Errorf("listing users: %w", err)
			}
		}

		accounts := newAccountService(db, cfg)
		writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(writer, "USER\tMIGRATED\tCLEARS REMOVED\tWEEKS\tPITCHED REMOVED")
		var failed int
		for _, id := range userIDs {
			result, err := accounts.Load(ctx, id)
			if err != nil {
				failed++
				fmt.Fprintf(writer, "%s\terror: %v\t\t\t\n", id, err)
				continue
			}
			fmt.Fprintf(writer, "%s\t%t\t%d\t%d\t%d\n",
				id, result.Migrated,
				result.Cleanup.ClearEntriesRemoved, result.Cleanup.WeeksAffected, result.Cleanup.PitchedItemsRemoved,
			)
		}
		writer.Flush()

		if failed > 0 {
			return fmt.Errorf("%d of %d user(s) failed to reconcile", failed, len(userIDs))
		}
		return nil
	},
}

var purgeLegacyCmd = &cobra.Command{
	Use:   "purge-legacy",
	Short: "Remove retained legacy fields from a migrated account",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		ctx := cmd.Context()
		cfg, db, err := setup(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		purged, err := newAccountService(db, cfg).PurgeLegacy(ctx, userID)
		if err != nil {
			return err
		}
		if purged {
			fmt.Fprintf(cmd.OutOrStdout(), "purged legacy fields for %s\n", userID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "no legacy fields left for %s\n", userID)
		}
		return nil
	},
}

// newAccountService wires the account flow the same way server.New does.
func newAccountService(db *sql.DB, cfg config.Config) *services.AccountService {
	return services.NewAccountService(
		repository.NewUserDataRepository(db),
		repository.NewAccountRepository(db),
		newWeeklyService(db, cfg),
	)
}

func newWeeklyService(db *sql.DB, cfg config.Config) *services.WeeklyService {
	return services.NewWeeklyService(
		repository.NewWeeklyRecordRepository(db),
		repository.NewBossRegistryRepository(db),
	).WithStrictVersioning(cfg.StrictVersioning)
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().String("user", "", "user id to reconcile")
	reconcileCmd.Flags().Bool("all", false, "reconcile every user with stored data")

	rootCmd.AddCommand(purgeLegacyCmd)
	purgeLegacyCmd.Flags().String("user", "", "user id whose legacy fields should be removed")
	purgeLegacyCmd.MarkFlagRequired("user")
}
