package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"DealEventScraper/internal/app"
	"DealEventScraper/internal/config"
	"DealEventScraper/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "dealeventscraper",
	Short:         "dealeventscraper scrapes retail deals and public events and stores them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config (defaults to $"+config.ConfigPathEnv+").")
}

// ExecuteContext runs the CLI and exits non-zero on failure.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadApp reads and validates the config, then builds the application graph.
func loadApp() (*app.Application, *slog.Logger, error) {
	cfg := config.Load(configPath)
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	application, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return application, logger, nil
}
