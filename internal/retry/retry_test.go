package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("connection reset")

func noJitter(d time.Duration) time.Duration { return 0 }

func TestDo_AttemptBound(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
	}{
		{name: "no_retries", maxRetries: 0},
		{name: "one_retry", maxRetries: 1},
		{name: "three_retries", maxRetries: 3},
		{name: "five_retries", maxRetries: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			p := Policy{MaxRetries: tt.maxRetries, BaseDelay: time.Millisecond, Jitter: noJitter}

			attempts, err := Do(context.Background(), p, func(context.Context, int) error {
				calls++
				return errTransient
			})

			if !errors.Is(err, errTransient) {
				t.Errorf("err = %v, want transient", err)
			}
			if calls != tt.maxRetries+1 || attempts != calls {
				t.Errorf("calls = %d, attempts = %d, want %d", calls, attempts, tt.maxRetries+1)
			}
		})
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	errParse := errors.New("unexpected markup")
	calls := 0

	attempts, err := Do(context.Background(), Policy{MaxRetries: 5, Jitter: noJitter}, func(context.Context, int) error {
		calls++
		return Permanent(errParse)
	})

	if calls != 1 || attempts != 1 {
		t.Errorf("calls = %d, attempts = %d, want 1", calls, attempts)
	}
	if err != errParse {
		t.Errorf("err = %v, want unwrapped parse error", err)
	}
}

func TestDo_RetryableClassifier(t *testing.T) {
	errBadRequest := errors.New("400")
	calls := 0
	p := Policy{
		MaxRetries: 3,
		Jitter:     noJitter,
		Retryable:  func(err error) bool { return err != errBadRequest },
	}

	_, err := Do(context.Background(), p, func(context.Context, int) error {
		calls++
		return errBadRequest
	})
	if calls != 1 || err != errBadRequest {
		t.Errorf("calls = %d err = %v", calls, err)
	}
}

func TestDo_SucceedsAfterTransient(t *testing.T) {
	var retried []int
	p := Policy{
		MaxRetries: 3,
		Jitter:     noJitter,
		OnRetry: func(_ context.Context, next int, _ time.Duration, _ error) {
			retried = append(retried, next)
		},
	}

	attempts, err := Do(context.Background(), p, func(_ context.Context, attempt int) error {
		if attempt < 2 {
			return errTransient
		}
		return nil
	})

	if err != nil || attempts != 3 {
		t.Errorf("attempts = %d err = %v", attempts, err)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("OnRetry saw %v, want [1 2]", retried)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxRetries: 10, BaseDelay: time.Hour, Jitter: func(d time.Duration) time.Duration { return d }}

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Do(ctx, p, func(context.Context, int) error {
		calls++
		return errTransient
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("err = %v, want last attempt error", err)
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{20, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := Backoff(time.Second, 30*time.Second, tt.attempt); got != tt.want {
			t.Errorf("Backoff(attempt=%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestFullJitterStaysInRange(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	for i := 0; i < 200; i++ {
		if d := p.delay(2); d < 0 || d > 400*time.Millisecond {
			t.Fatalf("delay = %s out of [0, 400ms]", d)
		}
	}
}
