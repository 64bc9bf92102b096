package ports

import (
	"context"
	"errors"
	"time"

	"DealEventScraper/internal/domain"
)

// ErrSchemaMissing reports that the table backing a record kind has not been provisioned yet.
var ErrSchemaMissing = errors.New("storage schema is not provisioned")

// DealQuery filters the latest-deals listing.
type DealQuery struct {
	Limit    int
	Retailer string
	Since    *time.Time
}

// EventQuery filters the upcoming-events listing.
type EventQuery struct {
	Limit    int
	Category string
	Since    time.Time
}

// DealStore persists deals keyed by their external identifier.
type DealStore interface {
	UpsertDeal(ctx context.Context, row domain.DealRow) error
	ListDeals(ctx context.Context, q DealQuery) ([]domain.DealRow, error)
	DeleteDealsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventStore persists events keyed by their source URL.
type EventStore interface {
	UpsertEvent(ctx context.Context, row domain.EventRow) error
	ListEvents(ctx context.Context, q EventQuery) ([]domain.EventRow, error)
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Notifier streams batch summaries to Telegram or other channels.
type Notifier interface {
	Publish(ctx context.Context, message string) error
}

// Scheduler arms and disarms the recurring trigger.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
