package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nv0110/bosstracker/internal/config"
	"github.com/nv0110/bosstracker/internal/database"
	"github.com/nv0110/bosstracker/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database schema migrations, or revert the latest with --down",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger.Init(cfg.Log)

		db, err := database.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		if down, _ := cmd.Flags().GetBool("down"); down {
			version, err := database.Rollback(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("rolling back migration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reverted migration %d\n", version)
			return nil
		}

		applied, err := database.Migrate(cmd.Context(), db)
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("migrations complete", "applied", applied, "database", cfg.DatabasePath)
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("down", false, "revert the most recently applied migration instead")
}
