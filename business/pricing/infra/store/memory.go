// Package store implements the price record repository on memory, SQLite
// and Postgres.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
)

// Memory is an in-process repository for tests, demo and dry runs.
type Memory struct {
	mu       sync.RWMutex
	records  map[string]domain.PriceRecord
	sessions []domain.Session
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]domain.PriceRecord)}
}

func (m *Memory) Save(_ context.Context, records []domain.PriceRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, r := range records {
		if _, ok := m.records[r.ID]; ok {
			continue
		}
		m.records[r.ID] = r
		n++
	}
	return n, nil
}

func (m *Memory) Query(_ context.Context, filter domain.Filter) ([]domain.PriceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.PriceRecord, 0, len(m.records))
	for _, r := range m.records {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return domain.RecordLess(out[i], out[j]) })
	return out, nil
}

func (m *Memory) SaveCycle(_ context.Context, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.sessions {
		if m.sessions[i].ID == session.ID {
			m.sessions[i] = session
			return nil
		}
	}
	m.sessions = append(m.sessions, session)
	return nil
}

func (m *Memory) LastCycle(_ context.Context) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last *domain.Session
	for i := range m.sessions {
		if last == nil || !m.sessions[i].StartedAt.Before(last.StartedAt) {
			s := m.sessions[i]
			last = &s
		}
	}
	return last, nil
}

func (m *Memory) Prune(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, r := range m.records {
		if r.ObservedAt.Before(before) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Stats(_ context.Context, since time.Time) (domain.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var st domain.Stats
	platforms := make(map[string]struct{})
	models := make(map[string]struct{})
	for _, r := range m.records {
		st.TotalRecords++
		if !r.ObservedAt.Before(since) {
			st.RecentRecords++
		}
		platforms[r.Platform] = struct{}{}
		models[r.Model.Key()] = struct{}{}
		if st.Oldest.IsZero() || r.ObservedAt.Before(st.Oldest) {
			st.Oldest = r.ObservedAt
		}
		if r.ObservedAt.After(st.Newest) {
			st.Newest = r.ObservedAt
		}
	}
	st.Platforms = len(platforms)
	st.Models = len(models)
	return st, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
