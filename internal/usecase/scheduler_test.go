package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DealEventScraper/internal/domain"
)

// blockingRunner counts invocations and can hold a batch open until released.
type blockingRunner struct {
	kind    domain.Kind
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
	panics  bool

	mu   sync.Mutex
	opts RunOptions
}

func newBlockingRunner(kind domain.Kind, block bool) *blockingRunner {
	r := &blockingRunner{kind: kind, started: make(chan struct{}, 16)}
	if block {
		r.release = make(chan struct{})
	}
	return r
}

func (r *blockingRunner) Run(_ context.Context, opts RunOptions) (RunSummary, error) {
	r.calls.Add(1)
	r.mu.Lock()
	r.opts = opts
	r.mu.Unlock()
	r.started <- struct{}{}
	if r.release != nil {
		<-r.release
	}
	if r.panics {
		panic("runner exploded")
	}
	return RunSummary{Kind: r.kind, Sources: []string{"a", "b"}, Records: 5}, r.err
}

type fakeDriver struct {
	mu      sync.Mutex
	job     func(time.Time)
	started int
	stopped int
}

func (d *fakeDriver) Start(_ context.Context, job func(time.Time)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.job = job
	d.started++
	return nil
}

func (d *fakeDriver) Stop(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped++
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Publish(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func TestSchedulerRejectsOverlappingBatch(t *testing.T) {
	t.Parallel()

	logger, logs := newTestLogger()
	deals := newBlockingRunner(domain.KindDeals, true)
	events := newBlockingRunner(domain.KindEvents, false)
	s := NewScheduler(SchedulerDeps{Deals: deals, Events: events, Logger: logger, Clock: fixedClock})

	firstDone := make(chan BatchReport)
	go func() { firstDone <- s.TriggerAll(context.Background(), TriggerCron) }()
	<-deals.started
	require.True(t, s.Running())

	second := s.TriggerEvents(context.Background(), TriggerHTTP)
	require.True(t, second.Skipped)
	require.Equal(t, "another scrape is in progress", second.Reason)
	require.Zero(t, events.calls.Load(), "rejected batch must not reach any runner")
	require.Equal(t, 1, strings.Count(logs.String(), "another scrape is in progress"))

	close(deals.release)
	first := <-firstDone
	require.False(t, first.Skipped)
	require.Equal(t, "ok", first.Outcome())
	require.EqualValues(t, 1, deals.calls.Load())
	require.EqualValues(t, 1, events.calls.Load())
	require.False(t, s.Running())

	third := s.TriggerEvents(context.Background(), TriggerHTTP)
	require.False(t, third.Skipped)
	require.Nil(t, third.Deals)
	require.NotNil(t, third.Events)
	require.EqualValues(t, 2, events.calls.Load())
	require.EqualValues(t, 1, deals.calls.Load())
}

func TestSchedulerNoKindsRequested(t *testing.T) {
	t.Parallel()

	logger, logs := newTestLogger()
	deals := newBlockingRunner(domain.KindDeals, false)
	s := NewScheduler(SchedulerDeps{Deals: deals, Logger: logger})

	report := s.RunBatch(context.Background(), TriggerManual, BatchRequest{})
	require.True(t, report.Skipped)
	require.Zero(t, deals.calls.Load())
	require.Contains(t, logs.String(), "no scrapers were requested")

	_, ok := s.LastBatch()
	require.False(t, ok)
}

func TestSchedulerIsolatesKinds(t *testing.T) {
	t.Parallel()

	logger, logs := newTestLogger()
	deals := newBlockingRunner(domain.KindDeals, false)
	deals.panics = true
	events := newBlockingRunner(domain.KindEvents, false)
	notifier := &recordingNotifier{}

	s := NewScheduler(SchedulerDeps{Deals: deals, Events: events, Notifier: notifier, Logger: logger, Clock: fixedClock})
	report := s.TriggerAll(context.Background(), TriggerManual)

	require.True(t, report.Deals.Failed())
	require.Contains(t, report.Deals.Error, "runner exploded")
	require.False(t, report.Events.Failed())
	require.Equal(t, 5, report.Events.Records)
	require.Equal(t, "failed", report.Outcome())
	require.Contains(t, logs.String(), "failed deal-scraper")
	require.False(t, s.Running(), "guard is released after a panic")

	last, ok := s.LastBatch()
	require.True(t, ok)
	require.Equal(t, TriggerManual, last.Trigger)

	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], "trigger: manual")
	require.Contains(t, notifier.messages[0], "event-scraper: 5 records from 2 sources")
}

func TestSchedulerErrorDoesNotStopSiblingKind(t *testing.T) {
	t.Parallel()

	deals := newBlockingRunner(domain.KindDeals, false)
	deals.err = errors.New("persist deals: connection refused")
	events := newBlockingRunner(domain.KindEvents, false)

	s := NewScheduler(SchedulerDeps{Deals: deals, Events: events})
	report := s.TriggerAll(context.Background(), TriggerManual)

	require.Equal(t, "persist deals: connection refused", report.Deals.Error)
	require.EqualValues(t, 1, events.calls.Load())
	require.False(t, report.Events.Failed())
}

func TestSchedulerRunOptions(t *testing.T) {
	t.Parallel()

	deals := newBlockingRunner(domain.KindDeals, false)
	s := NewScheduler(SchedulerDeps{Deals: deals, Options: DefaultBatchOptions()})
	s.TriggerDeals(context.Background(), TriggerManual)

	deals.mu.Lock()
	opts := deals.opts
	deals.mu.Unlock()

	require.True(t, opts.Persist)
	require.False(t, opts.WriteSnapshot)
	require.True(t, opts.Quiet)
	require.Equal(t, 3, opts.Retry.Retries)
	require.Equal(t, time.Second, opts.Retry.Backoff)
	require.Equal(t, 10*time.Second, opts.Retry.MaxBackoff)
	require.NotNil(t, opts.Retry.Warn, "scheduled runs warn through the scheduler logger")
}

func TestSchedulerStartAndStop(t *testing.T) {
	t.Parallel()

	deals := newBlockingRunner(domain.KindDeals, false)
	events := newBlockingRunner(domain.KindEvents, false)
	driver := &fakeDriver{}
	s := NewScheduler(SchedulerDeps{Deals: deals, Events: events, Driver: driver})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	require.EqualValues(t, 1, deals.calls.Load(), "startup batch runs before the trigger is armed")

	last, ok := s.LastBatch()
	require.True(t, ok)
	require.Equal(t, TriggerStartup, last.Trigger)
	require.Equal(t, 1, driver.started)

	cancel()
	driver.job(time.Now())
	require.EqualValues(t, 2, events.calls.Load(), "cron batches ignore the cancelled start context")
	last, _ = s.LastBatch()
	require.Equal(t, TriggerCron, last.Trigger)

	require.NoError(t, s.Stop(context.Background()))
	require.Equal(t, 1, driver.stopped)
}

func TestSchedulerSkipStartup(t *testing.T) {
	t.Parallel()

	deals := newBlockingRunner(domain.KindDeals, false)
	events := newBlockingRunner(domain.KindEvents, false)
	driver := &fakeDriver{}
	s := NewScheduler(SchedulerDeps{Deals: deals, Events: events, Driver: driver, SkipStartup: true})

	require.NoError(t, s.Start(context.Background()))
	require.Zero(t, deals.calls.Load())
	require.Equal(t, 1, driver.started)

	_, ok := s.LastBatch()
	require.False(t, ok)
}

func TestSchedulerStopWaitsForInflightBatch(t *testing.T) {
	t.Parallel()

	deals := newBlockingRunner(domain.KindDeals, true)
	s := NewScheduler(SchedulerDeps{Deals: deals})

	done := make(chan struct{})
	go func() {
		s.TriggerDeals(context.Background(), TriggerHTTP)
		close(done)
	}()
	<-deals.started

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Stop(short), context.DeadlineExceeded)

	stopped := make(chan error, 1)
	go func() { stopped <- s.Stop(context.Background()) }()
	close(deals.release)

	require.NoError(t, <-stopped)
	<-done
}

func TestSchedulerAdmitPublishesInflight(t *testing.T) {
	t.Parallel()

	s := NewScheduler(SchedulerDeps{})
	done, ok := s.admit()
	require.True(t, ok)
	require.True(t, s.Running())

	_, again := s.admit()
	require.False(t, again)

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Stop(short), context.DeadlineExceeded)

	close(done)
	require.NoError(t, s.Stop(context.Background()))
}

func TestFormatBatchReport(t *testing.T) {
	t.Parallel()

	report := BatchReport{
		Trigger:    TriggerCron,
		StartedAt:  fixedRunAt,
		FinishedAt: fixedRunAt.Add(90 * time.Second),
		Deals:      &KindReport{Task: "deal-scraper", Records: 12, Sources: []string{"AB", "LIDL"}, FailedSources: []string{"LIDL"}},
	}

	require.Equal(t,
		"Scrape batch ok (trigger: cron(4h)) in 1m30s\ndeal-scraper: 12 records from 2 sources, failed sources: LIDL",
		FormatBatchReport(report))
}
