package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nv0110/bosstracker/internal/repository"
	"github.com/nv0110/bosstracker/internal/services"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Manage the boss registry",
}

var registryImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Upsert boss registry entries from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading registry file: %w", err)
		}

		ctx := cmd.Context()
		_, db, err := setup(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		imported, err := services.NewRegistryService(repository.NewBossRegistryRepository(db)).Import(ctx, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d boss registry entries\n", imported)
		return nil
	},
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the boss registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, db, err := setup(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := services.NewRegistryService(repository.NewBossRegistryRepository(db)).List(ctx)
		if err != nil {
			return err
		}

		writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(writer, "CODE\tDIFFICULTY\tNAME\tCRYSTAL\tMAX PARTY\tENABLED")
		for _, entry := range entries {
			fmt.Fprintf(writer, "%s\t%s\t%s\t%d\t%d\t%t\n",
				entry.BossCode, entry.DifficultyCode, entry.BossName, entry.CrystalValue, entry.MaxPartySize, entry.Enabled)
		}
		return writer.Flush()
	},
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registryImportCmd)
	registryCmd.AddCommand(registryListCmd)
}
