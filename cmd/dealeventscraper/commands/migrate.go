package commands

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates the deal and event tables for the configured database driver.",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, logger, err := loadApp()
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.Migrate(cmd.Context()); err != nil {
			return err
		}
		logger.Info("schema applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
