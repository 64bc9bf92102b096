package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"DealEventScraper/internal/domain"
	"DealEventScraper/internal/infrastructure/fetcher"
	"DealEventScraper/internal/scanner"
)

// BrowserUserAgent is sent with every source request.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Getter is the fetch capability sources depend on.
type Getter interface {
	Get(ctx context.Context, rawURL string, headers map[string]string, policy fetcher.RetryPolicy) (*fetcher.Response, error)
}

type extractFunc[T domain.Record] func(body []byte, runAt time.Time) ([]T, error)

// SiteSource fetches one URL and turns the body into records.
// Fetch and parse failures are logged and reported as an empty result.
type SiteSource[T domain.Record] struct {
	name    string
	url     string
	getter  Getter
	logger  *slog.Logger
	extract extractFunc[T]
}

var (
	_ scanner.Source[domain.Deal]  = (*SiteSource[domain.Deal])(nil)
	_ scanner.Source[domain.Event] = (*SiteSource[domain.Event])(nil)
)

func newSiteSource[T domain.Record](name, url string, getter Getter, logger *slog.Logger, extract extractFunc[T]) *SiteSource[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &SiteSource[T]{
		name:    name,
		url:     url,
		getter:  getter,
		logger:  logger.With("source", name),
		extract: extract,
	}
}

// Name identifies the source inside the registry.
func (s *SiteSource[T]) Name() string {
	return s.name
}

// URL is the page or API endpoint the source reads.
func (s *SiteSource[T]) URL() string {
	return s.url
}

// Scan fetches the source and extracts its records.
func (s *SiteSource[T]) Scan(ctx context.Context, req scanner.Request) ([]T, error) {
	if s.getter == nil {
		return nil, fmt.Errorf("source %s has no fetcher", s.name)
	}

	headers := map[string]string{"User-Agent": BrowserUserAgent}
	resp, err := s.getter.Get(ctx, s.url, headers, req.RetryPolicy(s.logger))
	if err != nil {
		s.logger.Warn("source fetch failed, returning no records", "url", s.url, "error", err)
		return nil, nil
	}

	records, err := s.extract(resp.Body, req.RunAt)
	if err != nil {
		s.logger.Warn("source parse failed, returning no records", "url", s.url, "error", err)
		return nil, nil
	}

	s.logger.Debug("source scanned", "records", len(records))
	return records, nil
}

// DealSources returns the deal sources in registration order.
func DealSources(getter Getter, logger *slog.Logger) []scanner.Source[domain.Deal] {
	return []scanner.Source[domain.Deal]{
		NewABVassilopoulos(getter, logger),
		NewLidl(getter, logger),
	}
}

// EventSources returns the event sources in registration order.
func EventSources(getter Getter, logger *slog.Logger) []scanner.Source[domain.Event] {
	return []scanner.Source[domain.Event]{
		NewVisitGreece(getter, logger),
		NewAllOfGreeceOne(getter, logger),
		NewPigolampides(getter, logger),
		NewMoreCom(getter, logger),
		NewOlakala(getter, logger),
		NewKalamata(getter, logger),
	}
}
