package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"DealEventScraper/internal/app"
	"DealEventScraper/internal/usecase"
)

var (
	scrapePersist  bool
	scrapeSnapshot bool
	scrapeOutput   string
	scrapeQuiet    bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Runs one scrape pass outside the scheduler.",
}

var scrapeDealsCmd = &cobra.Command{
	Use:   "deals [--persist] [--snapshot] [--output <path>]",
	Short: "Scrapes every retailer once.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd, "deal", func(a *app.Application, ctx context.Context, opts usecase.RunOptions) (usecase.RunSummary, error) {
			return a.ScrapeDeals(ctx, opts)
		})
	},
}

var scrapeEventsCmd = &cobra.Command{
	Use:   "events [--persist] [--snapshot] [--output <path>]",
	Short: "Scrapes every event listing once.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd, "event", func(a *app.Application, ctx context.Context, opts usecase.RunOptions) (usecase.RunSummary, error) {
			return a.ScrapeEvents(ctx, opts)
		})
	},
}

func init() {
	flags := scrapeCmd.PersistentFlags()
	flags.BoolVar(&scrapePersist, "persist", true, "Upsert the scraped records into the database.")
	flags.BoolVar(&scrapeSnapshot, "snapshot", true, "Write the run as a JSON snapshot.")
	flags.StringVar(&scrapeOutput, "output", "", "Snapshot path (defaults to scraped-deals.json / scraped-events.json).")
	flags.BoolVar(&scrapeQuiet, "quiet", false, "Only log warnings and errors from the run.")

	scrapeCmd.AddCommand(scrapeDealsCmd, scrapeEventsCmd)
	rootCmd.AddCommand(scrapeCmd)
}

type scrapeFunc func(a *app.Application, ctx context.Context, opts usecase.RunOptions) (usecase.RunSummary, error)

func runScrape(cmd *cobra.Command, noun string, scrape scrapeFunc) error {
	application, _, err := loadApp()
	if err != nil {
		return err
	}
	defer application.Close()

	summary, err := scrape(application, cmd.Context(), usecase.RunOptions{
		Persist:       scrapePersist,
		WriteSnapshot: scrapeSnapshot,
		SnapshotPath:  scrapeOutput,
		Quiet:         scrapeQuiet,
	})
	if err != nil {
		return fmt.Errorf("%s scraping failed: %w", noun, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s scraping completed. %d records from %d sources.\n",
		strings.ToUpper(noun[:1])+noun[1:], summary.Records, len(summary.Sources))
	if len(summary.FailedSources) > 0 {
		fmt.Fprintf(out, "Failed sources: %s\n", strings.Join(summary.FailedSources, ", "))
	}
	return nil
}
