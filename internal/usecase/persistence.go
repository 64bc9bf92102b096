package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"DealEventScraper/internal/domain"
	"DealEventScraper/internal/metrics"
	"DealEventScraper/internal/ports"
)

// PersistenceError is a hard storage failure that aborts persistence of one record kind.
type PersistenceError struct {
	Kind       domain.Kind
	Identifier string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %q: %v", e.Kind, e.Identifier, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persister upserts normalized records one by one. Rows already written stay
// written when a later record fails.
type Persister struct {
	deals   ports.DealStore
	events  ports.EventStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewPersister wires the stores; either may be nil when that kind is never persisted.
func NewPersister(deals ports.DealStore, events ports.EventStore, logger *slog.Logger, m *metrics.Metrics) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{
		deals:   deals,
		events:  events,
		logger:  logger.With("component", "persister"),
		metrics: m,
	}
}

// PersistDeals upserts every deal keyed by its product URL.
// A missing deals table is logged and skipped.
func (p *Persister) PersistDeals(ctx context.Context, deals []domain.Deal) error {
	if p.deals == nil {
		return errors.New("deal store is not configured")
	}

	for _, deal := range deals {
		err := p.deals.UpsertDeal(ctx, DealRow(deal))
		if errors.Is(err, ports.ErrSchemaMissing) {
			p.metrics.IncUpsert(string(domain.KindDeals), "skipped")
			p.logger.Warn("deal table not found; skipping deal persistence, apply the schema first", "error", err)
			return nil
		}
		if err != nil {
			p.metrics.IncUpsert(string(domain.KindDeals), "error")
			return &PersistenceError{Kind: domain.KindDeals, Identifier: deal.Identifier(), Err: err}
		}
		p.metrics.IncUpsert(string(domain.KindDeals), "ok")
	}

	p.logger.Debug("deals persisted", "count", len(deals))
	return nil
}

// PersistEvents upserts every event keyed by its source URL.
// A missing events table is logged and skipped.
func (p *Persister) PersistEvents(ctx context.Context, events []domain.Event) error {
	if p.events == nil {
		return errors.New("event store is not configured")
	}

	for _, event := range events {
		err := p.events.UpsertEvent(ctx, EventRow(event))
		if errors.Is(err, ports.ErrSchemaMissing) {
			p.metrics.IncUpsert(string(domain.KindEvents), "skipped")
			p.logger.Warn("event table not found; skipping event persistence, apply the schema first", "error", err)
			return nil
		}
		if err != nil {
			p.metrics.IncUpsert(string(domain.KindEvents), "error")
			return &PersistenceError{Kind: domain.KindEvents, Identifier: event.Identifier(), Err: err}
		}
		p.metrics.IncUpsert(string(domain.KindEvents), "ok")
	}

	p.logger.Debug("events persisted", "count", len(events))
	return nil
}

// DealRow maps a scraped deal onto its durable row.
// Unknown retailer labels are kept verbatim.
func DealRow(deal domain.Deal) domain.DealRow {
	retailer := deal.Retailer
	if canonical, ok := domain.ParseRetailer(deal.Retailer); ok {
		retailer = string(canonical)
	}

	return domain.DealRow{
		ExternalID:         deal.ProductURL,
		Retailer:           retailer,
		Title:              deal.Title,
		Description:        domain.OptionalString(deal.Description),
		ProductURL:         deal.ProductURL,
		ImageURL:           domain.OptionalString(deal.ImageURL),
		SalePrice:          decimalPtr(deal.SalePrice),
		SaleCurrency:       domain.OptionalString(deal.SaleCurrency),
		DiscountedPrice:    decimalPtr(deal.DiscountedPrice),
		DiscountedCurrency: domain.OptionalString(deal.DiscountedCurrency),
		DiscountPercentage: decimalPtr(deal.DiscountPercentage),
		ScrapedAt:          deal.ScrapedAt.UTC(),
	}
}

// EventRow maps a scraped event onto its durable row.
func EventRow(event domain.Event) domain.EventRow {
	tags := event.Tags
	if tags == nil {
		tags = []string{}
	}

	var endDate *time.Time
	if event.EndDate != nil {
		end := event.EndDate.UTC()
		endDate = &end
	}

	return domain.EventRow{
		Title:       event.Title,
		Description: domain.OptionalString(event.Description),
		Location:    domain.OptionalString(event.Location),
		ImageURL:    domain.OptionalString(event.ImageURL),
		SourceURL:   event.SourceURL,
		StartDate:   event.StartDate.UTC(),
		EndDate:     endDate,
		Category:    domain.OptionalString(event.Category),
		Tags:        tags,
		Metadata: domain.EventMetadata{
			Source:    event.Source,
			ScrapedAt: event.ScrapedAt.UTC(),
		},
	}
}

// ParseDecimal turns price-like text into a number. Characters other than
// digits, comma, period and minus are dropped, the first comma becomes the
// decimal point and every period but the last is treated as a thousands
// separator. "12,99" is 12.99, "1.234,56" is 1234.56; text without a valid
// number reports false.
func ParseDecimal(text string) (float64, bool) {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, text)
	if sanitized == "" {
		return 0, false
	}

	normalized := strings.Replace(sanitized, ",", ".", 1)
	if last := strings.LastIndex(normalized, "."); last >= 0 {
		normalized = strings.ReplaceAll(normalized[:last], ".", "") + normalized[last:]
	}

	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

func decimalPtr(text string) *float64 {
	value, ok := ParseDecimal(text)
	if !ok {
		return nil
	}
	return &value
}
