package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"DealEventScraper/internal/domain"
	"DealEventScraper/internal/ports"
	"DealEventScraper/internal/scanner"
)

var fixedRunAt = time.Date(2025, time.December, 20, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedRunAt }

// syncBuffer is a log sink safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// memStore keeps rows keyed like the SQL store and can be told to fail.
type memStore struct {
	mu        sync.Mutex
	deals     map[string]domain.DealRow
	events    map[string]domain.EventRow
	upserts   int
	failAfter int
	failErr   error
}

var (
	_ ports.DealStore  = (*memStore)(nil)
	_ ports.EventStore = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{deals: map[string]domain.DealRow{}, events: map[string]domain.EventRow{}, failAfter: -1}
}

func (m *memStore) fail() error {
	if m.failErr != nil && m.failAfter >= 0 && m.upserts >= m.failAfter {
		return m.failErr
	}
	return nil
}

func (m *memStore) UpsertDeal(_ context.Context, row domain.DealRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	m.upserts++
	m.deals[row.ExternalID] = row
	return nil
}

func (m *memStore) UpsertEvent(_ context.Context, row domain.EventRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	m.upserts++
	m.events[row.SourceURL] = row
	return nil
}

func (m *memStore) ListDeals(context.Context, ports.DealQuery) ([]domain.DealRow, error) {
	return nil, errors.New("not implemented")
}

func (m *memStore) ListEvents(context.Context, ports.EventQuery) ([]domain.EventRow, error) {
	return nil, errors.New("not implemented")
}

func (m *memStore) DeleteDealsBefore(context.Context, time.Time) (int64, error) {
	return 0, errors.New("not implemented")
}

func (m *memStore) DeleteEventsBefore(context.Context, time.Time) (int64, error) {
	return 0, errors.New("not implemented")
}

// fakeSource yields fixed deals, fails or panics.
type fakeSource struct {
	name   string
	deals  []domain.Deal
	err    error
	panics bool
	calls  int
	seen   scanner.Request
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) URL() string  { return "https://" + f.name + ".test/" }

func (f *fakeSource) Scan(_ context.Context, req scanner.Request) ([]domain.Deal, error) {
	f.calls++
	f.seen = req
	if f.panics {
		panic(fmt.Sprintf("%s exploded", f.name))
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.deals, nil
}

func dealsFor(source string, n int) []domain.Deal {
	deals := make([]domain.Deal, 0, n)
	for i := 0; i < n; i++ {
		deals = append(deals, domain.Deal{
			Retailer:   source,
			Title:      fmt.Sprintf("%s item %d", source, i),
			ProductURL: fmt.Sprintf("https://%s.test/p/%d", source, i),
			SalePrice:  "1,99",
		})
	}
	return deals
}
