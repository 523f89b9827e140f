package domain

import (
	"fmt"
	"sort"
	"time"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
)

// CycleState is a step of the scrape cycle.
type CycleState string

const (
	StateIdle            CycleState = "Idle"
	StateDispatching     CycleState = "Dispatching"
	StateCollecting      CycleState = "Collecting"
	StateAggregated      CycleState = "Aggregated"
	StatePersisted       CycleState = "Persisted"
	StatePartiallyFailed CycleState = "PartiallyFailed"
	StateFailed          CycleState = "Failed"
)

var transitions = map[CycleState][]CycleState{
	StateIdle:        {StateDispatching},
	StateDispatching: {StateCollecting},
	StateCollecting:  {StateAggregated},
	StateAggregated:  {StatePersisted, StatePartiallyFailed, StateFailed},
}

// Terminal reports whether no further transition exists.
func (s CycleState) Terminal() bool {
	return len(transitions[s]) == 0
}

// CycleRequest narrows a cycle. Empty filters select everything.
type CycleRequest struct {
	Region   string    `json:"region,omitempty"`
	Platform string    `json:"platform,omitempty"`
	Model    string    `json:"model,omitempty"`
	DryRun   bool      `json:"dry_run,omitempty"`
	Sample   bool      `json:"-"` // every platform uses the sample adapter
	At       time.Time `json:"-"` // observation clock for sample runs
}

// CycleSummary is the outcome of one scrape cycle.
type CycleSummary struct {
	ID            string         `json:"id"`
	State         CycleState     `json:"state"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	DryRun        bool           `json:"dry_run"`
	Results       []ScrapeResult `json:"results"`
	Attempted     int            `json:"attempted"`
	Succeeded     int            `json:"succeeded"`
	Failed        int            `json:"failed"`
	Saved         int            `json:"saved"`
	Dropped       int            `json:"dropped"`
	FailedBatches int            `json:"failed_batches,omitempty"`
}

// NewCycleSummary starts a summary in Idle.
func NewCycleSummary(id string, startedAt time.Time, dryRun bool) *CycleSummary {
	return &CycleSummary{ID: id, State: StateIdle, StartedAt: startedAt, DryRun: dryRun}
}

// Advance moves to the next state, rejecting transitions the cycle does not allow.
func (s *CycleSummary) Advance(to CycleState) error {
	for _, next := range transitions[s.State] {
		if next == to {
			s.State = to
			return nil
		}
	}
	return fmt.Errorf("invalid cycle transition %s -> %s", s.State, to)
}

// Aggregate sorts the results by (region, platform) and recomputes totals.
func (s *CycleSummary) Aggregate(results []ScrapeResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Region != results[j].Region {
			return results[i].Region < results[j].Region
		}
		return results[i].Platform < results[j].Platform
	})
	s.Results = results

	s.Attempted, s.Succeeded, s.Failed, s.Dropped = 0, 0, 0, 0
	for _, r := range results {
		s.Attempted++
		if r.Failed() {
			s.Failed++
		} else {
			s.Succeeded++
		}
		s.Dropped += r.Dropped
	}
}

// Records returns every record in result order.
func (s *CycleSummary) Records() []pricingDomain.PriceRecord {
	var out []pricingDomain.PriceRecord
	for _, r := range s.Results {
		out = append(out, r.Records...)
	}
	return out
}

// Outcome picks the terminal state from the totals.
func (s *CycleSummary) Outcome() CycleState {
	switch {
	case s.Attempted > 0 && s.Failed == s.Attempted:
		return StateFailed
	case s.Failed > 0 || s.FailedBatches > 0:
		return StatePartiallyFailed
	default:
		return StatePersisted
	}
}

// Session converts the summary to its persisted form.
func (s *CycleSummary) Session() pricingDomain.Session {
	session := pricingDomain.Session{
		ID:         s.ID,
		State:      string(s.State),
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Attempted:  s.Attempted,
		Succeeded:  s.Succeeded,
		Failed:     s.Failed,
		Saved:      s.Saved,
		Dropped:    s.Dropped,
		DryRun:     s.DryRun,
	}
	for _, r := range s.Results {
		tally := pricingDomain.PlatformTally{
			Platform:  r.Platform,
			Region:    r.Region,
			Attempted: r.Attempted,
			Succeeded: r.Succeeded,
			Records:   len(r.Records),
			Dropped:   r.Dropped,
		}
		for _, e := range r.Errors {
			tally.Errors = append(tally.Errors, string(e.Kind)+": "+e.Message)
		}
		session.Platforms = append(session.Platforms, tally)
	}
	return session
}
