package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxPenalty caps the adaptive backoff multiplier.
const DefaultMaxPenalty = 8

// Gate hands out request start slots spaced at least interval × penalty
// apart. Callers sharing a Gate are serialized in slot order.
type Gate struct {
	mu         sync.Mutex
	interval   time.Duration
	penalty    int
	maxPenalty int
	next       time.Time
	now        func() time.Time
}

// NewGate creates a gate with the given minimum spacing.
func NewGate(interval time.Duration) *Gate {
	return &Gate{
		interval:   interval,
		penalty:    1,
		maxPenalty: DefaultMaxPenalty,
		now:        time.Now,
	}
}

// Reserve claims the next start slot and returns it.
func (g *Gate) Reserve() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	slot := g.next
	if slot.Before(now) {
		slot = now
	}
	g.next = slot.Add(g.interval * time.Duration(g.penalty))
	return slot
}

// Wait blocks until the caller's slot arrives or ctx is done.
// A cancelled wait still consumes its slot.
func (g *Gate) Wait(ctx context.Context) error {
	slot := g.Reserve()
	d := time.Until(slot)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Penalize doubles the spacing for the rest of the gate's life, up to the cap.
// It returns the new multiplier.
func (g *Gate) Penalize() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.penalty < g.maxPenalty {
		g.penalty *= 2
		if g.penalty > g.maxPenalty {
			g.penalty = g.maxPenalty
		}
	}
	return g.penalty
}

// Penalty returns the current multiplier.
func (g *Gate) Penalty() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.penalty
}

// Interval returns the effective spacing including any penalty.
func (g *Gate) Interval() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.interval * time.Duration(g.penalty)
}

// GateSet holds one Gate per key, typically the platform name, so that
// the same platform in two regions shares its pacing.
type GateSet struct {
	mu    sync.Mutex
	gates map[string]*Gate
}

// NewGateSet creates an empty set.
func NewGateSet() *GateSet {
	return &GateSet{gates: make(map[string]*Gate)}
}

// Get returns the gate for key, creating it with interval on first use.
func (s *GateSet) Get(key string, interval time.Duration) *Gate {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gates[key]
	if !ok {
		g = NewGate(interval)
		s.gates[key] = g
	}
	return g
}

// Penalties returns the current multiplier of every gate above 1.
func (s *GateSet) Penalties() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int)
	for k, g := range s.gates {
		if p := g.Penalty(); p > 1 {
			out[k] = p
		}
	}
	return out
}
