package domain

import (
	"encoding/json"
	"time"
)

// ScrapeRun is the aggregate of one pass over every source of a single kind.
type ScrapeRun[T Record] struct {
	Kind    Kind
	RunAt   time.Time
	Sources []string
	Records []T
}

// TotalCount is the number of records aggregated in the run.
func (r ScrapeRun[T]) TotalCount() int {
	return len(r.Records)
}

// MarshalJSON renders the snapshot document: runAt, sources, totalDeals|totalEvents, deals|events.
func (r ScrapeRun[T]) MarshalJSON() ([]byte, error) {
	totalKey, recordsKey := "totalDeals", "deals"
	if r.Kind == KindEvents {
		totalKey, recordsKey = "totalEvents", "events"
	}

	sources := r.Sources
	if sources == nil {
		sources = []string{}
	}
	records := r.Records
	if records == nil {
		records = []T{}
	}

	return json.Marshal(map[string]any{
		"runAt":    r.RunAt.UTC().Format(time.RFC3339Nano),
		"sources":  sources,
		totalKey:   len(records),
		recordsKey: records,
	})
}
