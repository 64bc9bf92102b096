package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"DealEventScraper/internal/domain"
	"DealEventScraper/internal/infrastructure/fetcher"
	"DealEventScraper/internal/infrastructure/snapshot"
	"DealEventScraper/internal/metrics"
	"DealEventScraper/internal/scanner"
)

// Default snapshot artifacts written by one-shot runs.
const (
	DefaultDealsSnapshot  = "scraped-deals.json"
	DefaultEventsSnapshot = "scraped-events.json"
)

// RunOptions control the side effects of one pass.
type RunOptions struct {
	Persist       bool
	WriteSnapshot bool
	// SnapshotPath defaults to the kind's default artifact name.
	SnapshotPath string
	// Retry nil means the fetcher default policy.
	Retry *fetcher.RetryPolicy
	Quiet bool
}

// RunSummary is the kind-agnostic view of a finished pass.
type RunSummary struct {
	Kind          domain.Kind `json:"kind"`
	RunAt         time.Time   `json:"runAt"`
	Sources       []string    `json:"sources"`
	FailedSources []string    `json:"failedSources,omitempty"`
	Records       int         `json:"records"`
}

// Runner executes one pass over a kind's sources.
type Runner interface {
	Run(ctx context.Context, opts RunOptions) (RunSummary, error)
}

// PersistFunc hands a pass's records to storage.
type PersistFunc[T domain.Record] func(ctx context.Context, records []T) error

// PipelineDeps wires the collaborators of a pipeline.
type PipelineDeps[T domain.Record] struct {
	Kind     domain.Kind
	Registry *scanner.Registry[T]
	Persist  PersistFunc[T]
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Pipeline runs every registered source of one kind sequentially and aggregates the result.
type Pipeline[T domain.Record] struct {
	kind          domain.Kind
	registry      *scanner.Registry[T]
	persist       PersistFunc[T]
	writeSnapshot func(path string, v any) error
	logger        *slog.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

var (
	_ Runner = (*Pipeline[domain.Deal])(nil)
	_ Runner = (*Pipeline[domain.Event])(nil)
)

// NewPipeline constructs the orchestration component.
func NewPipeline[T domain.Record](deps PipelineDeps[T]) *Pipeline[T] {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := deps.Registry
	if registry == nil {
		registry = scanner.NewRegistry[T]()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Pipeline[T]{
		kind:          deps.Kind,
		registry:      registry,
		persist:       deps.Persist,
		writeSnapshot: snapshot.WriteJSON,
		logger:        logger.With("component", "pipeline", "kind", string(deps.Kind)),
		metrics:       deps.Metrics,
		now:           clock,
	}
}

// Kind reports which record family the pipeline produces.
func (p *Pipeline[T]) Kind() domain.Kind {
	return p.kind
}

// Sources lists the registered source names in run order.
func (p *Pipeline[T]) Sources() []string {
	return p.registry.Names()
}

// Execute performs one pass. The returned run is complete even when the
// snapshot or persistence step fails.
func (p *Pipeline[T]) Execute(ctx context.Context, opts RunOptions) (domain.ScrapeRun[T], error) {
	run, _, err := p.execute(ctx, opts)
	return run, err
}

// Run executes a pass and reports its summary.
func (p *Pipeline[T]) Run(ctx context.Context, opts RunOptions) (RunSummary, error) {
	run, failed, err := p.execute(ctx, opts)
	return RunSummary{
		Kind:          p.kind,
		RunAt:         run.RunAt,
		Sources:       run.Sources,
		FailedSources: failed,
		Records:       run.TotalCount(),
	}, err
}

func (p *Pipeline[T]) execute(ctx context.Context, opts RunOptions) (domain.ScrapeRun[T], []string, error) {
	run, failed := p.collect(ctx, opts)

	if opts.WriteSnapshot {
		path := opts.SnapshotPath
		if path == "" {
			path = p.defaultSnapshotPath()
		}
		if err := p.writeSnapshot(path, run); err != nil {
			return run, failed, fmt.Errorf("write %s snapshot: %w", p.kind, err)
		}
		p.logger.Debug("snapshot written", "path", path)
	}

	if opts.Persist {
		if p.persist == nil {
			return run, failed, fmt.Errorf("persist %s: no persister configured", p.kind)
		}
		if err := p.persist(ctx, run.Records); err != nil {
			return run, failed, fmt.Errorf("persist %s: %w", p.kind, err)
		}
	}

	p.progress(opts, "scraping completed", "records", run.TotalCount(), "sources", len(run.Sources))
	return run, failed, nil
}

// collect invokes every source in registration order behind its own failure boundary.
func (p *Pipeline[T]) collect(ctx context.Context, opts RunOptions) (domain.ScrapeRun[T], []string) {
	run := domain.ScrapeRun[T]{
		Kind:    p.kind,
		RunAt:   p.now().UTC(),
		Sources: make([]string, 0, p.registry.Len()),
		Records: make([]T, 0),
	}
	req := scanner.Request{RunAt: run.RunAt, Retry: opts.Retry, Quiet: opts.Quiet}

	var failed []string
	for _, src := range p.registry.Sources() {
		name := src.Name()
		run.Sources = append(run.Sources, name)

		records, err := p.scanSafely(ctx, src, req)
		if err != nil {
			failed = append(failed, name)
			p.metrics.IncSourceFailure(string(p.kind), name)
			p.logger.Error("source failed, recording zero records", "source", name, "error", err)
			continue
		}

		kept := 0
		for _, record := range records {
			if !record.Valid() {
				continue
			}
			run.Records = append(run.Records, record)
			kept++
		}
		p.metrics.AddRecords(string(p.kind), name, kept)
		p.progress(opts, "source scanned", "source", name, "records", kept)
	}

	return run, failed
}

func (p *Pipeline[T]) scanSafely(ctx context.Context, src scanner.Source[T], req scanner.Request) (records []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = &scanner.ExtractionError{Source: src.Name(), Panic: r}
		}
	}()

	records, err = src.Scan(ctx, req)
	if err != nil {
		var extractionErr *scanner.ExtractionError
		if errors.As(err, &extractionErr) {
			return nil, err
		}
		return nil, &scanner.ExtractionError{Source: src.Name(), Err: err}
	}
	return records, nil
}

func (p *Pipeline[T]) progress(opts RunOptions, msg string, args ...any) {
	if opts.Quiet {
		p.logger.Debug(msg, args...)
		return
	}
	p.logger.Info(msg, args...)
}

func (p *Pipeline[T]) defaultSnapshotPath() string {
	if p.kind == domain.KindEvents {
		return DefaultEventsSnapshot
	}
	return DefaultDealsSnapshot
}
