// Package ui provides the Bubble Tea dashboard for the price tracker.
package ui

import (
	"time"

	analysisDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
)

// Message types for TUI updates

// CycleMsg is sent when a scrape cycle has been recorded.
type CycleMsg struct {
	Session pricingDomain.Session
}

// CycleStartedMsg is sent when the scheduler begins a cycle.
type CycleStartedMsg struct {
	At time.Time
}

// InsightsMsg is sent when an analysis run produced a bundle.
type InsightsMsg struct {
	Bundle *analysisDomain.Bundle
}

// StatsMsg carries repository statistics.
type StatsMsg struct {
	Stats pricingDomain.Stats
}

// PlatformFailedMsg is sent when a platform returned no records.
type PlatformFailedMsg struct {
	Platform string
	Region   string
	Reason   string
}

// NextCycleMsg tells the dashboard when the scheduler fires next.
type NextCycleMsg struct {
	At time.Time
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// WelcomeCompleteMsg signals the welcome screen is done (timeout or keypress).
type WelcomeCompleteMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // config, storage, platforms, server
	Status  string // "connecting", "connected", "done", "failed"
	Message string
}
