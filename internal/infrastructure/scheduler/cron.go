package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"DealEventScraper/internal/ports"
)

// CronScheduler fires the job on a standard five-field cron expression evaluated in a fixed location.
type CronScheduler struct {
	expr     string
	location *time.Location
	logger   *slog.Logger

	mu    sync.Mutex
	cron  *cron.Cron
	entry cron.EntryID
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for expr. A nil location means UTC.
func NewCronScheduler(expr string, location *time.Location, logger *slog.Logger) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CronScheduler{
		expr:     expr,
		location: location,
		logger:   logger.With("component", "cron"),
	}
}

// Start arms the cron entry. Calling Start on an armed scheduler is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return errors.New("cron job is nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron != nil {
		return nil
	}

	logger := cronLogger{logger: c.logger}
	runner := cron.New(
		cron.WithLocation(c.location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)

	entry, err := runner.AddFunc(c.expr, func() {
		job(time.Now().In(c.location))
	})
	if err != nil {
		return fmt.Errorf("parse cron expression %q: %w", c.expr, err)
	}

	runner.Start()
	c.cron = runner
	c.entry = entry

	c.logger.Info("cron armed", "expression", c.expr, "location", c.location.String(), "next", c.nextLocked())
	return nil
}

// Stop disarms the entry and waits for a running job to return or ctx to expire.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner := c.cron
	c.cron = nil
	c.mu.Unlock()

	if runner == nil {
		return nil
	}

	done := runner.Stop()
	select {
	case <-done.Done():
		c.logger.Info("cron stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for cron job: %w", ctx.Err())
	}
}

// Next reports the next fire time, zero when the scheduler is not armed.
func (c *CronScheduler) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextLocked()
}

func (c *CronScheduler) nextLocked() time.Time {
	if c.cron == nil {
		return time.Time{}
	}
	return c.cron.Entry(c.entry).Next
}

// cronLogger routes robfig/cron's logr-style output through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
