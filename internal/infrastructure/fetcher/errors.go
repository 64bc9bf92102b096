package fetcher

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrFetchExhausted matches every error returned after the attempt budget ran out.
var ErrFetchExhausted = errors.New("fetch: retries exhausted")

// StatusError reports a response whose status marks the attempt as failed.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("unexpected status %s", e.Status)
	}
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ExhaustedError carries the last underlying failure of a fetch that used its whole budget.
type ExhaustedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrFetchExhausted) match.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrFetchExhausted
}

// causeLabel renders the human readable failure cause used in retry warnings.
func causeLabel(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("status %d", statusErr.StatusCode)
	}
	return "network error"
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return "status_error"
	}
	return "network_error"
}
