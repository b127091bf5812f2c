package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nv0110/bosstracker/internal/weekclock"
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Print the start and end of the current reset week",
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, _ := cmd.Flags().GetInt("offset")
		start := weekclock.WeekStartWithOffset(offset)
		end, err := weekclock.WeekEnd(start)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", start, end)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(weekCmd)
	weekCmd.Flags().Int("offset", 0, "weeks relative to the current one (negative for past weeks)")
}
