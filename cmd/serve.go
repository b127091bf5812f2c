package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nv0110/bosstracker/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, db, err := setup(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		return server.New(db, cfg).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "listen port (overrides config and PORT)")
}
