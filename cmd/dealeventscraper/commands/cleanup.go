package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Deletes deals and events older than the configured retention windows.",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, _, err := loadApp()
		if err != nil {
			return err
		}
		defer application.Close()

		result, err := application.Cleanup(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Deleted %d deals scraped before %s.\n", result.Deals, result.DealCutoff.Format("2006-01-02"))
		fmt.Fprintf(out, "Deleted %d events ended before %s.\n", result.Events, result.EventCutoff.Format("2006-01-02"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
