package commands

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API and the scrape scheduler until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, logger, err := loadApp()
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.Serve(cmd.Context()); err != nil {
			logger.Error("application stopped", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
