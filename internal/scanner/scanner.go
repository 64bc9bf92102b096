package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"DealEventScraper/internal/domain"
	"DealEventScraper/internal/infrastructure/fetcher"
)

// Request carries all parameters required to execute a scan.
type Request struct {
	// RunAt is shared by every source of one pass and stamped on each record.
	RunAt time.Time
	// Retry nil selects fetcher.DefaultPolicy; a non-nil policy is used as is,
	// so Retries 0 means a single attempt.
	Retry *fetcher.RetryPolicy
	// Quiet silences retry warnings unless Retry carries its own sink.
	Quiet bool
}

// RetryPolicy resolves the warning sink for a source: an explicit sink wins,
// Quiet discards warnings, otherwise they go to the source's logger.
func (r Request) RetryPolicy(logger *slog.Logger) fetcher.RetryPolicy {
	policy := fetcher.DefaultPolicy()
	if r.Retry != nil {
		policy = *r.Retry
	}

	switch {
	case policy.Warn != nil:
	case r.Quiet:
		policy.Warn = fetcher.Discard
	case logger != nil:
		policy.Warn = logger.Warn
	}
	return policy
}

// Source captures a single extraction strategy (one site or API).
type Source[T domain.Record] interface {
	Name() string
	URL() string
	Scan(ctx context.Context, req Request) ([]T, error)
}

// Registry keeps sources in registration order.
type Registry[T domain.Record] struct {
	sources []Source[T]
	index   map[string]int
}

// NewRegistry builds a registry pre-populated with sources.
func NewRegistry[T domain.Record](sources ...Source[T]) *Registry[T] {
	r := &Registry[T]{index: map[string]int{}}
	for _, src := range sources {
		r.Register(src)
	}
	return r
}

// Register adds a source or replaces the one with the same name in place.
func (r *Registry[T]) Register(src Source[T]) {
	if r.index == nil {
		r.index = map[string]int{}
	}
	if i, ok := r.index[src.Name()]; ok {
		r.sources[i] = src
		return
	}
	r.index[src.Name()] = len(r.sources)
	r.sources = append(r.sources, src)
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry[T]) Resolve(name string) (Source[T], error) {
	if i, ok := r.index[name]; ok {
		return r.sources[i], nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}

// Sources returns the registered sources in order.
func (r *Registry[T]) Sources() []Source[T] {
	out := make([]Source[T], len(r.sources))
	copy(out, r.sources)
	return out
}

// Names lists registered source names in order.
func (r *Registry[T]) Names() []string {
	names := make([]string, 0, len(r.sources))
	for _, src := range r.sources {
		names = append(names, src.Name())
	}
	return names
}

// Len reports how many sources are registered.
func (r *Registry[T]) Len() int {
	return len(r.sources)
}
