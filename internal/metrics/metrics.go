package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scrape pipeline.
// Every helper is nil-safe so components can run without instrumentation.
type Metrics struct {
	Registry        *prometheus.Registry
	FetchAttempts   *prometheus.CounterVec
	FetchRetries    prometheus.Counter
	FetchDuration   prometheus.Histogram
	RecordsScraped  *prometheus.CounterVec
	SourceFailures  *prometheus.CounterVec
	Upserts         *prometheus.CounterVec
	Batches         *prometheus.CounterVec
	BatchInProgress prometheus.Gauge
}

// New constructs and registers all collectors on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_fetch_attempts_total",
			Help: "HTTP fetch attempts by outcome.",
		},
		[]string{"outcome"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_fetch_retries_total",
			Help: "Total number of retry attempts scheduled after a failed fetch.",
		},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_fetch_duration_seconds",
			Help:    "Latency of individual fetch attempts.",
			Buckets: prometheus.DefBuckets,
		},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_records_scraped_total",
			Help: "Records yielded by each source.",
		},
		[]string{"kind", "source"},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_source_failures_total",
			Help: "Source invocations that failed and were recorded as zero records.",
		},
		[]string{"kind", "source"},
	)
	upserts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_upserts_total",
			Help: "Persistence outcomes per record kind.",
		},
		[]string{"kind", "outcome"},
	)
	batches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_batches_total",
			Help: "Scheduler batches by trigger and outcome.",
		},
		[]string{"trigger", "outcome"},
	)
	inProgress := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_batch_in_progress",
			Help: "1 while a batch holds the scheduler guard.",
		},
	)

	registry.MustRegister(attempts, retries, duration, records, failures, upserts, batches, inProgress)

	return &Metrics{
		Registry:        registry,
		FetchAttempts:   attempts,
		FetchRetries:    retries,
		FetchDuration:   duration,
		RecordsScraped:  records,
		SourceFailures:  failures,
		Upserts:         upserts,
		Batches:         batches,
		BatchInProgress: inProgress,
	}
}

// IncFetchAttempt counts one fetch attempt with its outcome label.
func (m *Metrics) IncFetchAttempt(outcome string) {
	if m == nil {
		return
	}
	m.FetchAttempts.WithLabelValues(outcome).Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.FetchRetries.Inc()
}

// ObserveFetch records a fetch attempt duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// AddRecords adds the number of records a source yielded.
func (m *Metrics) AddRecords(kind, source string, n int) {
	if m == nil {
		return
	}
	m.RecordsScraped.WithLabelValues(kind, source).Add(float64(n))
}

// IncSourceFailure counts a source invocation absorbed by the orchestrator.
func (m *Metrics) IncSourceFailure(kind, source string) {
	if m == nil {
		return
	}
	m.SourceFailures.WithLabelValues(kind, source).Inc()
}

// IncUpsert counts one persistence outcome.
func (m *Metrics) IncUpsert(kind, outcome string) {
	if m == nil {
		return
	}
	m.Upserts.WithLabelValues(kind, outcome).Inc()
}

// IncBatch counts a scheduler batch outcome.
func (m *Metrics) IncBatch(trigger, outcome string) {
	if m == nil {
		return
	}
	m.Batches.WithLabelValues(trigger, outcome).Inc()
}

// SetBatchInProgress flips the in-progress gauge.
func (m *Metrics) SetBatchInProgress(running bool) {
	if m == nil {
		return
	}
	if running {
		m.BatchInProgress.Set(1)
		return
	}
	m.BatchInProgress.Set(0)
}
