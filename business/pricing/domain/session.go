package domain

import "time"

// Session is the persisted record of one scrape cycle.
type Session struct {
	ID         string          `json:"id"`
	State      string          `json:"state"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Attempted  int             `json:"attempted"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Saved      int             `json:"saved"`
	Dropped    int             `json:"dropped"`
	DryRun     bool            `json:"dry_run"`
	Platforms  []PlatformTally `json:"platforms"`
}

// PlatformTally is one (platform, region) line of a session.
type PlatformTally struct {
	Platform  string   `json:"platform"`
	Region    string   `json:"region"`
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	Records   int      `json:"records"`
	Dropped   int      `json:"dropped"`
	Errors    []string `json:"errors,omitempty"`
}

// Duration returns the wall time of the cycle.
func (s Session) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
