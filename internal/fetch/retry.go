package fetch

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Retrier wraps a Fetcher with a bounded number of attempts and a fixed
// delay between them. It implements Fetcher itself.
type Retrier struct {
	fetcher        Fetcher
	maxAttempts    int
	delay          time.Duration
	retryPermanent bool
	logger         *slog.Logger
}

// RetrierOption configures a Retrier.
type RetrierOption func(*Retrier)

// WithMaxAttempts sets the total attempt budget, including the first attempt.
func WithMaxAttempts(n int) RetrierOption {
	return func(r *Retrier) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithDelay sets the fixed delay between attempts.
func WithDelay(d time.Duration) RetrierOption {
	return func(r *Retrier) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithRetryPermanent controls whether permanent failures (4xx) are retried.
// The default is true.
func WithRetryPermanent(retry bool) RetrierOption {
	return func(r *Retrier) {
		r.retryPermanent = retry
	}
}

// WithRetryLogger sets the logger for attempt failures.
func WithRetryLogger(logger *slog.Logger) RetrierOption {
	return func(r *Retrier) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRetrier wraps fetcher with the default policy: 3 attempts, 2 seconds apart.
func NewRetrier(fetcher Fetcher, opts ...RetrierOption) *Retrier {
	r := &Retrier{
		fetcher:        fetcher,
		maxAttempts:    3,
		delay:          2 * time.Second,
		retryPermanent: true,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxAttempts returns the attempt budget.
func (r *Retrier) MaxAttempts() int {
	return r.maxAttempts
}

// Fetch tries the location until it succeeds or the budget is spent.
// There is no wait after the final attempt. Cancelling ctx interrupts a wait.
func (r *Retrier) Fetch(ctx context.Context, location string) (*Response, error) {
	var last error
	attempt := 0
	for attempt < r.maxAttempts {
		attempt++
		resp, err := r.fetcher.Fetch(ctx, location)
		if err == nil {
			return resp, nil
		}
		last = err
		r.logger.Debug("fetch attempt failed", "location", location, "attempt", attempt, "max_attempts", r.maxAttempts, "error", err)

		if ctx.Err() != nil {
			break
		}
		if !r.retryPermanent && kindOf(err) == KindPermanent {
			break
		}
		if attempt == r.maxAttempts {
			break
		}
		if err := wait(ctx, r.delay); err != nil {
			break
		}
	}

	return nil, finalError(location, attempt, last)
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// kindOf returns the failure kind of err, treating unclassified errors as transient.
func kindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindTransient
}

// finalError builds the error reported after the last attempt.
func finalError(location string, attempts int, err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		out := *fe
		out.Location = location
		out.Attempts = attempts
		return &out
	}
	return &Error{Location: location, Attempts: attempts, Kind: KindTransient, Err: err}
}
