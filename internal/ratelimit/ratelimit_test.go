package ratelimit

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestGate_SlotsAreSpacedAcrossGoroutines(t *testing.T) {
	const interval = 250 * time.Millisecond
	g := NewGate(interval)

	var (
		mu    sync.Mutex
		slots []time.Time
		wg    sync.WaitGroup
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := g.Reserve()
			mu.Lock()
			slots = append(slots, s)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	for i := 1; i < len(slots); i++ {
		if gap := slots[i].Sub(slots[i-1]); gap < interval {
			t.Fatalf("slots %d and %d are %s apart, want >= %s", i-1, i, gap, interval)
		}
	}
}

func TestGate_WaitReturnsNoEarlierThanSlot(t *testing.T) {
	const interval = 30 * time.Millisecond
	g := NewGate(interval)
	ctx := context.Background()

	var starts []time.Time
	for i := 0; i < 3; i++ {
		if err := g.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		starts = append(starts, time.Now())
	}

	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < interval {
			t.Errorf("request %d started %s after previous, want >= %s", i, gap, interval)
		}
	}
}

func TestGate_WaitHonoursContext(t *testing.T) {
	g := NewGate(time.Hour)
	_ = g.Reserve()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := g.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
}

func TestGate_Penalize(t *testing.T) {
	g := NewGate(time.Second)

	want := []int{2, 4, 8, 8}
	for i, w := range want {
		if got := g.Penalize(); got != w {
			t.Errorf("Penalize() #%d = %d, want %d", i, got, w)
		}
	}
	if g.Interval() != 8*time.Second {
		t.Errorf("Interval() = %s, want 8s", g.Interval())
	}

	base := time.Unix(1_700_000_000, 0)
	g.now = func() time.Time { return base }
	g.next = time.Time{}
	first := g.Reserve()
	second := g.Reserve()
	if second.Sub(first) != 8*time.Second {
		t.Errorf("penalized spacing = %s, want 8s", second.Sub(first))
	}
}

func TestGateSet_SharesGatePerKey(t *testing.T) {
	s := NewGateSet()
	a := s.Get("Back Market", time.Second)
	b := s.Get("Back Market", 5*time.Second)
	c := s.Get("Swappa", time.Second)

	if a != b {
		t.Errorf("same key returned different gates")
	}
	if a == c {
		t.Errorf("different keys share a gate")
	}

	a.Penalize()
	p := s.Penalties()
	if len(p) != 1 || p["Back Market"] != 2 {
		t.Errorf("Penalties() = %v", p)
	}
}

func TestLimiter(t *testing.T) {
	t.Run("disabled_when_non_positive", func(t *testing.T) {
		l := New(0)
		for i := 0; i < 100; i++ {
			if !l.Allow() {
				t.Fatalf("request %d rejected by unlimited limiter", i)
			}
		}
	})

	t.Run("burst_then_reject", func(t *testing.T) {
		l := New(60) // burst 6
		allowed := 0
		for i := 0; i < 10; i++ {
			if l.Allow() {
				allowed++
			}
		}
		if allowed != 6 {
			t.Errorf("allowed = %d, want 6", allowed)
		}
	})
}
