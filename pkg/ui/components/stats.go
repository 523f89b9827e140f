package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds statistics for display.
type Stats struct {
	Records       int
	RecentRecords int
	Platforms     int
	Models        int
	Cycles        int
	Insights      int
	Errors        int
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F8FAFC")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F43F5E")).Bold(true)

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Records: %s (7d: %s)  │  Platforms: %s  │  Models: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Records)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.RecentRecords)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Platforms)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Models)),
		) +
		fmt.Sprintf("Cycles: %s  │  Insights: %s  │  Platform errors: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Cycles)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Insights)),
			errorsDisplay,
		)
}
