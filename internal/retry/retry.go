// Package retry runs an operation with bounded, jittered exponential backoff.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Policy configures Do.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// Retryable reports whether err is transient. Nil treats every error
	// not marked Permanent as transient.
	Retryable func(error) bool

	// OnRetry runs before sleeping ahead of attempt next (1-based).
	OnRetry func(ctx context.Context, next int, delay time.Duration, err error)

	// Jitter maps the capped delay to the actual sleep. Nil applies full jitter.
	Jitter func(time.Duration) time.Duration
}

// DefaultPolicy returns three retries starting at one second, capped at 30s.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do calls fn until it succeeds, returns a non-retryable error, ctx ends,
// or MaxRetries+1 attempts have been made. It returns the number of
// attempts and the last error, with any Permanent marker removed.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) (int, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = func(err error) bool { return !IsPermanent(err) }
	}

	var err error
	attempt := 0
	for ; attempt <= p.MaxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return attempt, unwrapPermanent(err)
		}

		err = fn(ctx, attempt)
		if err == nil {
			return attempt + 1, nil
		}
		if IsPermanent(err) || !retryable(err) || attempt == p.MaxRetries {
			return attempt + 1, unwrapPermanent(err)
		}

		delay := p.delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(ctx, attempt+1, delay, err)
		}
		if delay <= 0 {
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt + 1, unwrapPermanent(err)
		case <-timer.C:
		}
	}
	return attempt, unwrapPermanent(err)
}

// Backoff returns base × 2^attempt capped at max.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if max > 0 && d >= max {
			return max
		}
	}
	if max > 0 && d > max {
		return max
	}
	return d
}

func (p Policy) delay(attempt int) time.Duration {
	d := Backoff(p.BaseDelay, p.MaxDelay, attempt)
	if p.Jitter != nil {
		return p.Jitter(d)
	}
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(d) + 1))
}

func unwrapPermanent(err error) error {
	var p *permanentError
	if errors.As(err, &p) && err == error(p) {
		return p.err
	}
	return err
}
