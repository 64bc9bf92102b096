package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"DealEventScraper/internal/domain"
	"DealEventScraper/internal/infrastructure/fetcher"
	"DealEventScraper/internal/metrics"
	"DealEventScraper/internal/ports"
)

// Trigger tags attached to batches.
const (
	TriggerStartup = "startup"
	TriggerCron    = "cron(4h)"
	TriggerHTTP    = "http-api"
	TriggerManual  = "manual"
)

const notifyTimeout = 10 * time.Second

// BatchRequest selects the kinds a batch covers.
type BatchRequest struct {
	Deals  bool
	Events bool
}

// AllKinds requests both deals and events.
var AllKinds = BatchRequest{Deals: true, Events: true}

// Kinds lists the requested kinds, deals first.
func (r BatchRequest) Kinds() []string {
	kinds := make([]string, 0, 2)
	if r.Deals {
		kinds = append(kinds, string(domain.KindDeals))
	}
	if r.Events {
		kinds = append(kinds, string(domain.KindEvents))
	}
	return kinds
}

// KindReport is the outcome of one kind's run inside a batch.
type KindReport struct {
	Task          string        `json:"task"`
	Records       int           `json:"records"`
	Sources       []string      `json:"sources,omitempty"`
	FailedSources []string      `json:"failedSources,omitempty"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"durationNs"`
}

// Failed reports whether the run ended with an error or a panic.
func (r *KindReport) Failed() bool {
	return r != nil && r.Error != ""
}

// BatchReport describes one admitted or rejected batch.
type BatchReport struct {
	Trigger    string      `json:"trigger"`
	Skipped    bool        `json:"skipped"`
	Reason     string      `json:"reason,omitempty"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt time.Time   `json:"finishedAt,omitzero"`
	Deals      *KindReport `json:"deals,omitempty"`
	Events     *KindReport `json:"events,omitempty"`
}

// Outcome labels the batch for metrics and notifications.
func (r BatchReport) Outcome() string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.Deals.Failed() || r.Events.Failed():
		return "failed"
	default:
		return "ok"
	}
}

// SchedulerDeps wires the scheduler.
type SchedulerDeps struct {
	Deals  Runner
	Events Runner
	// Driver arms the recurring trigger; nil disables the cron path.
	Driver   ports.Scheduler
	Notifier ports.Notifier
	// Options apply to every kind's run; a nil retry sink becomes the scheduler's logger.
	Options RunOptions
	// SkipStartup arms the recurring trigger without the initial batch.
	SkipStartup bool
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Clock       func() time.Time
}

// Scheduler admits at most one batch at a time; excess triggers are dropped.
type Scheduler struct {
	deals       Runner
	events      Runner
	driver      ports.Scheduler
	notifier    ports.Notifier
	opts        RunOptions
	skipStartup bool
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time

	running atomic.Bool

	mu       sync.Mutex
	inflight chan struct{}
	last     *BatchReport
}

// NewScheduler builds the batch scheduler.
func NewScheduler(deps SchedulerDeps) *Scheduler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	opts := deps.Options
	if opts.Retry != nil && opts.Retry.Warn == nil {
		retry := *opts.Retry
		retry.Warn = fetcher.WarnFunc(logger.Warn)
		opts.Retry = &retry
	}

	return &Scheduler{
		deals:       deps.Deals,
		events:      deps.Events,
		driver:      deps.Driver,
		notifier:    deps.Notifier,
		opts:        opts,
		skipStartup: deps.SkipStartup,
		logger:      logger,
		metrics:     deps.Metrics,
		now:         clock,
	}
}

// DefaultBatchOptions are the per-kind run options of scheduled batches.
func DefaultBatchOptions() RunOptions {
	return RunOptions{
		Persist: true,
		Quiet:   true,
		Retry: &fetcher.RetryPolicy{
			Retries:    3,
			Backoff:    time.Second,
			MaxBackoff: 10 * time.Second,
		},
	}
}

// Start runs one startup batch over both kinds, then arms the recurring trigger.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.skipStartup {
		s.RunBatch(ctx, TriggerStartup, AllKinds)
	}

	if s.driver == nil {
		return nil
	}

	jobCtx := context.WithoutCancel(ctx)
	if err := s.driver.Start(ctx, func(time.Time) {
		s.RunBatch(jobCtx, TriggerCron, AllKinds)
	}); err != nil {
		return fmt.Errorf("arm recurring trigger: %w", err)
	}
	return nil
}

// Stop disarms the recurring trigger and waits for an in-flight batch until ctx expires.
// The batch itself is never cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver != nil {
		if err := s.driver.Stop(ctx); err != nil {
			return fmt.Errorf("disarm recurring trigger: %w", err)
		}
	}

	s.mu.Lock()
	inflight := s.inflight
	s.mu.Unlock()
	if inflight == nil {
		return nil
	}

	s.logger.Info("waiting for in-flight batch to finish")
	select {
	case <-inflight:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("in-flight batch still running: %w", ctx.Err())
	}
}

// TriggerAll runs a batch over deals and events.
func (s *Scheduler) TriggerAll(ctx context.Context, trigger string) BatchReport {
	return s.RunBatch(ctx, trigger, AllKinds)
}

// TriggerDeals runs a deals-only batch.
func (s *Scheduler) TriggerDeals(ctx context.Context, trigger string) BatchReport {
	return s.RunBatch(ctx, trigger, BatchRequest{Deals: true})
}

// TriggerEvents runs an events-only batch.
func (s *Scheduler) TriggerEvents(ctx context.Context, trigger string) BatchReport {
	return s.RunBatch(ctx, trigger, BatchRequest{Events: true})
}

// Running reports whether a batch currently holds the guard.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// LastBatch returns the report of the most recent admitted batch.
func (s *Scheduler) LastBatch() (BatchReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return BatchReport{}, false
	}
	return *s.last, true
}

// RunBatch is the single entry point of cron, startup and manual triggers.
// A batch arriving while another holds the guard is dropped, not queued.
func (s *Scheduler) RunBatch(ctx context.Context, trigger string, req BatchRequest) BatchReport {
	report := BatchReport{Trigger: trigger, StartedAt: s.now().UTC()}

	if !req.Deals && !req.Events {
		s.logger.Warn("skipping run because no scrapers were requested", "trigger", trigger)
		report.Skipped = true
		report.Reason = "no scrapers requested"
		return report
	}

	done, ok := s.admit()
	if !ok {
		s.logger.Warn("skipping run, another scrape is in progress", "trigger", trigger)
		s.metrics.IncBatch(trigger, "skipped")
		report.Skipped = true
		report.Reason = "another scrape is in progress"
		return report
	}
	s.metrics.SetBatchInProgress(true)

	defer func() {
		s.mu.Lock()
		s.inflight = nil
		s.mu.Unlock()
		s.metrics.SetBatchInProgress(false)
		s.running.Store(false)
		close(done)
	}()

	// Batches outlive the trigger: a closed request or shutdown must not cancel them.
	ctx = context.WithoutCancel(ctx)
	s.logger.Info("running scheduled scrapers", "trigger", trigger, "kinds", strings.Join(req.Kinds(), ","))

	if req.Deals {
		report.Deals = s.runSafely(ctx, "deal-scraper", s.deals)
	}
	if req.Events {
		report.Events = s.runSafely(ctx, "event-scraper", s.events)
	}
	report.FinishedAt = s.now().UTC()

	s.metrics.IncBatch(trigger, report.Outcome())
	s.mu.Lock()
	last := report
	s.last = &last
	s.mu.Unlock()

	s.notify(ctx, report)
	return report
}

// admit takes the guard and publishes the in-flight channel in one step,
// so Stop never observes a held guard without something to wait on.
func (s *Scheduler) admit() (chan struct{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.CompareAndSwap(false, true) {
		return nil, false
	}
	s.inflight = make(chan struct{})
	return s.inflight, true
}

// runSafely isolates one kind's run: errors and panics are logged and reported.
func (s *Scheduler) runSafely(ctx context.Context, task string, runner Runner) (report *KindReport) {
	report = &KindReport{Task: task}
	start := s.now()

	defer func() {
		if r := recover(); r != nil {
			report.Error = fmt.Sprintf("panic: %v", r)
			s.logger.Error("failed "+task, "panic", r)
		}
		report.Duration = s.now().Sub(start)
	}()

	if runner == nil {
		report.Error = "runner is not configured"
		s.logger.Error("failed "+task, "error", report.Error)
		return report
	}

	s.logger.Info("starting " + task)
	summary, err := runner.Run(ctx, s.opts)
	report.Records = summary.Records
	report.Sources = summary.Sources
	report.FailedSources = summary.FailedSources
	if err != nil {
		report.Error = err.Error()
		s.logger.Error("failed "+task, "error", err)
		return report
	}

	s.logger.Info("finished "+task, "records", summary.Records)
	return report
}

func (s *Scheduler) notify(ctx context.Context, report BatchReport) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := s.notifier.Publish(ctx, FormatBatchReport(report)); err != nil {
		s.logger.Warn("batch notification failed", "error", err)
	}
}

// FormatBatchReport renders a short plain-text summary of a batch.
func FormatBatchReport(report BatchReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scrape batch %s (trigger: %s)", report.Outcome(), report.Trigger)
	if !report.FinishedAt.IsZero() {
		fmt.Fprintf(&b, " in %s", report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	}
	b.WriteString("\n")

	for _, kind := range []*KindReport{report.Deals, report.Events} {
		if kind == nil {
			continue
		}
		fmt.Fprintf(&b, "%s: %d records from %d sources", kind.Task, kind.Records, len(kind.Sources))
		if len(kind.FailedSources) > 0 {
			fmt.Fprintf(&b, ", failed sources: %s", strings.Join(kind.FailedSources, ", "))
		}
		if kind.Error != "" {
			fmt.Fprintf(&b, ", error: %s", kind.Error)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
