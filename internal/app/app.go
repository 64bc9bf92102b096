package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"DealEventScraper/internal/config"
	"DealEventScraper/internal/domain"
	"DealEventScraper/internal/infrastructure/fetcher"
	"DealEventScraper/internal/infrastructure/parser"
	"DealEventScraper/internal/infrastructure/scheduler"
	"DealEventScraper/internal/infrastructure/storage"
	"DealEventScraper/internal/infrastructure/telegram"
	"DealEventScraper/internal/logging"
	"DealEventScraper/internal/metrics"
	"DealEventScraper/internal/ports"
	"DealEventScraper/internal/scanner"
	"DealEventScraper/internal/server"
	"DealEventScraper/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
	repo      *storage.Repository
	deals     *usecase.Pipeline[domain.Deal]
	events    *usecase.Pipeline[domain.Event]
	scheduler *usecase.Scheduler
	server    *server.Server
	now       func() time.Time
}

// New builds the application graph. Nothing touches the network until a command runs.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	repo, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	m := metrics.New()
	httpFetcher := fetcher.New(fetcher.Options{
		Timeout: cfg.Scrape.HTTPTimeout,
		Metrics: m,
		Logger:  baseLogger.With("component", "fetcher"),
	})
	persister := usecase.NewPersister(repo, repo, baseLogger, m)

	deals := usecase.NewPipeline(usecase.PipelineDeps[domain.Deal]{
		Kind:     domain.KindDeals,
		Registry: scanner.NewRegistry[domain.Deal](parser.DealSources(httpFetcher, baseLogger)...),
		Persist:  persister.PersistDeals,
		Logger:   baseLogger,
		Metrics:  m,
	})
	events := usecase.NewPipeline(usecase.PipelineDeps[domain.Event]{
		Kind:     domain.KindEvents,
		Registry: scanner.NewRegistry[domain.Event](parser.EventSources(httpFetcher, baseLogger)...),
		Persist:  persister.PersistEvents,
		Logger:   baseLogger,
		Metrics:  m,
	})

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(telegram.Options{
			BotToken: cfg.Notifications.Telegram.BotToken,
			ChatID:   cfg.Notifications.Telegram.ChatID,
		})
	}

	batchOptions := usecase.DefaultBatchOptions()
	batchOptions.Retry = &fetcher.RetryPolicy{
		Retries:    cfg.Scrape.RetryCount(),
		Backoff:    cfg.Scrape.Backoff,
		MaxBackoff: cfg.Scrape.MaxBackoff,
	}

	batches := usecase.NewScheduler(usecase.SchedulerDeps{
		Deals:       deals,
		Events:      events,
		Driver:      scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), baseLogger),
		Notifier:    notifier,
		Options:     batchOptions,
		SkipStartup: !cfg.Scheduler.StartupBatch(),
		Logger:      baseLogger,
		Metrics:     m,
	})

	srv := server.New(server.Deps{
		Addr:      cfg.Server.Addr(),
		APIKey:    cfg.Server.APIKey,
		Scheduler: batches,
		Deals:     repo,
		Events:    repo,
		Metrics:   m,
		Logger:    baseLogger,
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		metrics:   m,
		repo:      repo,
		deals:     deals,
		events:    events,
		scheduler: batches,
		server:    srv,
		now:       time.Now,
	}, nil
}

// Serve starts the HTTP surface, runs the startup batch, arms the cron
// trigger and blocks until ctx is cancelled or the listener fails.
func (a *Application) Serve(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.Start()
	}()

	if err := a.scheduler.Start(ctx); err != nil {
		return errors.Join(err, a.shutdown())
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	case err := <-serverErr:
		if err != nil {
			return errors.Join(err, a.shutdown())
		}
	}

	return a.shutdown()
}

func (a *Application) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ScrapeDeals runs one deal pass outside the scheduler.
func (a *Application) ScrapeDeals(ctx context.Context, opts usecase.RunOptions) (usecase.RunSummary, error) {
	return a.deals.Run(ctx, opts)
}

// ScrapeEvents runs one event pass outside the scheduler.
func (a *Application) ScrapeEvents(ctx context.Context, opts usecase.RunOptions) (usecase.RunSummary, error) {
	return a.events.Run(ctx, opts)
}

// CleanupResult counts the rows removed by Cleanup.
type CleanupResult struct {
	Deals       int64
	Events      int64
	DealCutoff  time.Time
	EventCutoff time.Time
}

// Cleanup deletes deals and events older than the configured retention windows.
func (a *Application) Cleanup(ctx context.Context) (CleanupResult, error) {
	now := a.now().UTC()
	result := CleanupResult{
		DealCutoff:  a.cfg.Retention.DealCutoff(now),
		EventCutoff: a.cfg.Retention.EventCutoff(now),
	}

	deleted, err := a.repo.DeleteDealsBefore(ctx, result.DealCutoff)
	if err != nil {
		return result, fmt.Errorf("cleanup deals: %w", err)
	}
	result.Deals = deleted

	deleted, err = a.repo.DeleteEventsBefore(ctx, result.EventCutoff)
	if err != nil {
		return result, fmt.Errorf("cleanup events: %w", err)
	}
	result.Events = deleted

	a.logger.Info("cleanup finished",
		"deals_deleted", result.Deals,
		"events_deleted", result.Events,
		"deal_retention_days", a.cfg.Retention.DealDays,
		"event_retention_days", a.cfg.Retention.EventDays,
	)
	return result, nil
}

// Migrate applies the storage DDL for the configured driver.
func (a *Application) Migrate(ctx context.Context) error {
	return a.repo.ApplySchema(ctx)
}

// Close releases the database pool.
func (a *Application) Close() error {
	return a.repo.Close()
}
