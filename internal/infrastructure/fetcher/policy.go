package fetcher

import "time"

// WarnFunc receives retry warnings as a message plus slog-style key/value pairs.
type WarnFunc func(msg string, args ...any)

// Discard is an explicit opt-out sink: no retry warnings are emitted at all.
// A nil WarnFunc instead means "use the fetcher's default logger".
var Discard WarnFunc = func(string, ...any) {}

// RetryPolicy bounds the attempts of a single fetch. It is passed by value.
type RetryPolicy struct {
	// Retries is the number of attempts allowed after the first one.
	Retries int
	// Backoff is the base delay; it doubles after every failed attempt.
	Backoff time.Duration
	// MaxBackoff caps the delay. Zero or negative disables the cap.
	MaxBackoff time.Duration
	Warn       WarnFunc
}

// DefaultPolicy returns 3 retries with a 500ms base delay capped at 4s.
func DefaultPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:    3,
		Backoff:    500 * time.Millisecond,
		MaxBackoff: 4 * time.Second,
	}
}

// MaxAttempts is the total attempt budget: the first attempt plus the retries.
func (p RetryPolicy) MaxAttempts() int {
	if p.Retries < 0 {
		return 1
	}
	return p.Retries + 1
}

// Delay returns the wait after the given number of failed attempts (1-based):
// min(Backoff * 2^(failed-1), MaxBackoff).
func (p RetryPolicy) Delay(failed int) time.Duration {
	if failed <= 0 {
		failed = 1
	}
	if p.Backoff <= 0 {
		return 0
	}

	delay := p.Backoff
	for i := 1; i < failed; i++ {
		if p.MaxBackoff > 0 && delay >= p.MaxBackoff {
			break
		}
		if delay > time.Duration(1<<62)/2 {
			break
		}
		delay *= 2
	}

	if p.MaxBackoff > 0 && delay > p.MaxBackoff {
		delay = p.MaxBackoff
	}
	return delay
}
