package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nv0110/bosstracker/internal/config"
	"github.com/nv0110/bosstracker/internal/database"
	"github.com/nv0110/bosstracker/internal/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bosstracker",
	Short: "Weekly boss clear and pitched item tracker",
	Long: `bosstracker keeps per-week character, boss selection and clear records for each
user, migrates legacy account data and serves the tracker's JSON API.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml when present)")
}

// setup loads the configuration, installs the logger and opens the migrated database.
func setup(ctx context.Context) (config.Config, *sql.DB, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("loading config: %w", err)
	}
	logger.Init(cfg.Log)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return config.Config{}, nil, fmt.Errorf("running migrations: %w", err)
	}
	return cfg, db, nil
}
