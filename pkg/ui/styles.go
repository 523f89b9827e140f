package ui

import "github.com/charmbracelet/lipgloss"

// Palette. Deals and healthy platforms are green; price rises and failed
// platforms use the alert color.
var (
	ColorAccent  = lipgloss.Color("#0EA5E9") // sky, panel headings
	ColorDeal    = lipgloss.Color("#22C55E")
	ColorAlert   = lipgloss.Color("#F43F5E")
	ColorPending = lipgloss.Color("#FBBF24") // scrape in flight
	ColorCycle   = lipgloss.Color("#A78BFA")
	ColorDim     = lipgloss.Color("#94A3B8")
	ColorFrame   = lipgloss.Color("#334155")
	ColorText    = lipgloss.Color("#F8FAFC")
)

var (
	BannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorAccent).
			Padding(0, 2)

	// PanelStyle frames the insights and platform columns.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorFrame).
			Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

	SchedulerIdle     = lipgloss.NewStyle().Bold(true).Foreground(ColorDeal)
	SchedulerScraping = lipgloss.NewStyle().Bold(true).Foreground(ColorPending)
	SchedulerPaused   = lipgloss.NewStyle().Bold(true).Foreground(ColorAlert)

	DimText      = lipgloss.NewStyle().Foreground(ColorDim)
	AlertText    = lipgloss.NewStyle().Foreground(ColorAlert)
	KeyHelpStyle = DimText.Padding(0, 1)
)
