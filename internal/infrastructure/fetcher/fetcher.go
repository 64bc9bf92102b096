package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"DealEventScraper/internal/metrics"
)

// Response is the body and metadata of a successful fetch.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Options configures a Fetcher.
type Options struct {
	Client  *http.Client
	Timeout time.Duration
	Metrics *metrics.Metrics
	// Logger is the default retry-warning sink for policies without one.
	Logger *slog.Logger
}

// Fetcher performs HTTP GETs with bounded exponential-backoff retry.
type Fetcher struct {
	client  *resty.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// New wires a resty client over the provided http.Client; resty's own retry stays off.
func New(opts Options) *Fetcher {
	httpClient := opts.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.NewWithClient(httpClient).
		SetRetryCount(0).
		SetLogger(restyLogger{logger: logger})
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	return &Fetcher{
		client:  client,
		metrics: opts.Metrics,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Get issues a GET for rawURL, retrying failed attempts according to policy.
// A transport error or a status >= 400 fails the attempt. When the budget is spent
// the returned error matches ErrFetchExhausted and wraps the last failure.
func (f *Fetcher) Get(ctx context.Context, rawURL string, headers map[string]string, policy RetryPolicy) (*Response, error) {
	maxAttempts := policy.MaxAttempts()
	warn := f.warnSink(policy)

	var lastErr error
	for failed := 0; failed < maxAttempts; {
		resp, err := f.attempt(ctx, rawURL, headers)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		failed++

		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, ctx.Err())
		}
		if failed >= maxAttempts {
			break
		}

		wait := policy.Delay(failed)
		warn("request failed, retrying",
			"url", rawURL,
			"cause", causeLabel(err),
			"wait", wait,
			"attempt", fmt.Sprintf("%d/%d", failed+1, maxAttempts),
		)
		f.metrics.IncRetries()

		if err := f.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
		}
	}

	return nil, &ExhaustedError{URL: rawURL, Attempts: maxAttempts, Err: lastErr}
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	start := time.Now()
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(rawURL)
	f.metrics.ObserveFetch(time.Since(start))

	if err == nil && resp.IsError() {
		err = &StatusError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	}
	f.metrics.IncFetchAttempt(outcomeLabel(err))
	if err != nil {
		return nil, err
	}

	return &Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

func (f *Fetcher) warnSink(policy RetryPolicy) WarnFunc {
	if policy.Warn != nil {
		return policy.Warn
	}
	return f.logger.Warn
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "resty")
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), "component", "resty")
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
