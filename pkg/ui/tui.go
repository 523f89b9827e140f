package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	analysisDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "done", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Loading modules
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

var stepOrder = []string{"config", "storage", "platforms", "server"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	deals         *components.DealsComponent
	opportunities *components.OpportunitiesComponent
	platforms     *components.StatusComponent
	stats         *components.StatsComponent
	keys          KeyMap
	help          help.Model

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	ready      bool
	quitting   bool
	paused     bool
	width      int
	height     int
	running    bool
	runStarted time.Time
	nextCycle  time.Time
	lastCycle  string
	lastUpdate time.Time
	errors     []ErrorEntry
	activity   []string

	// Startup state
	startupComplete bool
	startupSteps    map[string]*StartupStep
	startupTime     time.Time
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		deals:         components.NewDealsComponent(),
		opportunities: components.NewOpportunitiesComponent(8),
		platforms:     components.NewStatusComponent(),
		stats:         components.NewStatsComponent(),
		keys:          DefaultKeyMap(),
		help:          help.New(),
		phase:         PhaseWelcome,
		welcomeStart:  now,
		errors:        make([]ErrorEntry, 0, 3),
		activity:      make([]string, 0, 8),
		startupSteps: map[string]*StartupStep{
			"config":    {Name: "Loading configuration", Status: "pending"},
			"storage":   {Name: "Opening price store", Status: "pending"},
			"platforms": {Name: "Registering platforms", Status: "pending"},
			"server":    {Name: "Starting API server", Status: "pending"},
		},
		startupTime: now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m *Model) leaveWelcome() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Trigger callback directly (don't use Send() from within Update)
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// During welcome phase, any other key skips to startup
		if m.phase == PhaseWelcome {
			m.leaveWelcome()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Run):
			if !m.running && OnRunCycle != nil {
				go OnRunCycle()
			}
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			if OnPause != nil {
				go OnPause(m.paused)
			}
		case key.Matches(msg, m.keys.Clear):
			m.opportunities.Clear()
			m.activity = m.activity[:0]
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = make([]ErrorEntry, 0, 3)
		case key.Matches(msg, m.keys.Up):
			m.opportunities.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.opportunities.ScrollDown()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.leaveWelcome()
		}
		return m, tickCmd()

	case CycleStartedMsg:
		m.running = true
		m.runStarted = msg.At
		m.activity = addActivity(m.activity, "Scrape cycle started")
		m.lastUpdate = time.Now()

	case CycleMsg:
		s := msg.Session
		m.running = false
		m.startupComplete = true
		m.lastCycle = fmt.Sprintf("%s %s", s.State, s.FinishedAt.Local().Format("15:04:05"))
		for _, p := range s.Platforms {
			reason := ""
			if len(p.Errors) > 0 {
				reason = p.Errors[0]
			}
			m.platforms.Update(components.PlatformStatus{
				Platform:  p.Platform,
				Region:    p.Region,
				Records:   p.Records,
				Dropped:   p.Dropped,
				Healthy:   p.Records > 0 || len(p.Errors) == 0,
				Reason:    reason,
				UpdatedAt: s.FinishedAt,
			})
		}
		st := m.stats.Stats()
		st.Cycles++
		st.Errors = m.platforms.Failing()
		m.stats.Update(st)
		m.activity = addActivity(m.activity, fmt.Sprintf("Cycle %s: %d saved, %d dropped, %d/%d platforms ok",
			s.State, s.Saved, s.Dropped, s.Succeeded, s.Attempted))
		m.lastUpdate = time.Now()

	case PlatformFailedMsg:
		m.activity = addActivity(m.activity, fmt.Sprintf("%s/%s failed: %s", msg.Platform, msg.Region, msg.Reason))

	case InsightsMsg:
		if msg.Bundle == nil || m.paused {
			break
		}
		m.applyInsights(msg.Bundle)
		m.lastUpdate = time.Now()

	case StatsMsg:
		st := m.stats.Stats()
		st.Records = msg.Stats.TotalRecords
		st.RecentRecords = msg.Stats.RecentRecords
		st.Platforms = msg.Stats.Platforms
		st.Models = msg.Stats.Models
		m.stats.Update(st)

	case NextCycleMsg:
		m.nextCycle = msg.At

	case ErrorMsg:
		if msg.Error == nil {
			break
		}
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}

	case LogMsg:
		m.activity = addActivity(m.activity, fmt.Sprintf("%s: %s", msg.Level, msg.Message))

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		allDone := true
		for _, step := range m.startupSteps {
			if step.Status != "connected" && step.Status != "done" {
				allDone = false
				break
			}
		}
		if allDone {
			m.startupComplete = true
		}
	}

	return m, nil
}

func (m *Model) applyInsights(b *analysisDomain.Bundle) {
	deals := make([]components.DealRow, 0, len(b.BestDeals))
	for _, d := range b.BestDeals {
		deals = append(deals, components.DealRow{
			Model:      d.Model.String(),
			Condition:  string(d.Condition),
			Platform:   d.Offer.Platform,
			Region:     d.Offer.Region,
			Price:      d.Offer.Price,
			SavingsPct: d.SavingsPct,
		})
	}
	m.deals.Update(deals, b.Currency)

	opps := make([]components.OpportunityRow, 0, len(b.ArbitrageOpportunities))
	for _, a := range b.ArbitrageOpportunities {
		opps = append(opps, components.OpportunityRow{
			Model:     a.Model.String(),
			Condition: string(a.Condition),
			Buy:       a.Buy.Platform + "/" + a.Buy.Region,
			Sell:      a.Sell.Platform + "/" + a.Sell.Region,
			Spread:    a.Spread.Absolute,
			SpreadPct: a.Spread.Percent,
		})
	}
	m.opportunities.Update(opps)

	for i, t := range b.TrendDeltas {
		if i == 3 {
			break
		}
		m.activity = addActivity(m.activity, fmt.Sprintf("%s %s on %s: %s%% (%s)",
			t.Model.String(), t.Condition, t.Platform, t.ChangePct.StringFixed(2), t.Direction))
	}

	st := m.stats.Stats()
	st.Insights = b.Count()
	m.stats.Update(st)
}

// addActivity adds an activity message and returns the updated slice (keeps last 6).
func addActivity(feed []string, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	line := fmt.Sprintf("[%s] %s", timestamp, message)
	feed = append(feed, line)
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		if !m.startupComplete {
			return m.renderStartupScreen()
		}
	}

	var b strings.Builder

	b.WriteString(BannerStyle.Render(" 📱 Refurbished Phone Price Tracker "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	leftCol := m.deals.View() + "\n\n" + m.platforms.View()
	rightCol := m.renderActivityFeed() + "\n\n" + m.opportunities.View()

	if m.width > 100 {
		left := PanelStyle.Width(m.width/2 - 2).Render(leftCol)
		right := PanelStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		width := max(m.width-4, 40)
		b.WriteString(PanelStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(PanelStyle.Width(width).Render(rightCol))
	}
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		errorStyle := AlertText
		errorHeader := AlertText.Bold(true)

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(DimText.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(DimText.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		pauseStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPending)
		b.WriteString(pauseStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(KeyHelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderActivityFeed() string {
	headerStyle := SectionStyle
	cycleStyle := lipgloss.NewStyle().Foreground(ColorCycle)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activity) == 0 {
		sb.WriteString(DimText.Render("  Waiting for the first cycle..."))
		return sb.String()
	}
	for _, line := range m.activity {
		if strings.Contains(line, "Cycle ") {
			sb.WriteString(cycleStyle.Render("  " + line))
		} else {
			sb.WriteString(DimText.Render("  " + line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderWelcomeScreen() string {
	titleStyle := SectionStyle
	goldStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPending)
	greenStyle := lipgloss.NewStyle().Foreground(ColorDeal)

	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
   ██████╗ ██████╗ ██╗ ██████╗███████╗
   ██╔══██╗██╔══██╗██║██╔════╝██╔════╝
   ██████╔╝██████╔╝██║██║     █████╗
   ██╔═══╝ ██╔══██╗██║██║     ██╔══╝
   ██║     ██║  ██║██║╚██████╗███████╗
   ╚═╝     ╚═╝  ╚═╝╚═╝ ╚═════╝╚══════╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(DimText.Render("        R E F U R B I S H E D   T R A C K E R"))
	sb.WriteString("\n\n\n")
	sb.WriteString(goldStyle.Render("          📱  Find the cheapest grade A phone  📱"))
	sb.WriteString("\n\n\n")
	sb.WriteString(greenStyle.Render(fmt.Sprintf("                 Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(DimText.Render("           Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStartupScreen() string {
	titleStyle := SectionStyle.MarginBottom(1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	successStyle := lipgloss.NewStyle().Foreground(ColorDeal)
	connectingStyle := lipgloss.NewStyle().Foreground(ColorPending)
	failedStyle := lipgloss.NewStyle().Foreground(ColorAlert)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  📱 Refurbished Phone Price Tracker"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, k := range stepOrder {
		step, ok := m.startupSteps[k]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style

		switch step.Status {
		case "connected", "done":
			icon, statusText, style = "✓", "Ready", successStyle
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
			icon, statusText, style = spinners[idx], "Working...", connectingStyle
		case "failed":
			icon, statusText, style = "✗", "Failed", failedStyle
		default:
			icon, statusText, style = "○", "Pending", DimText
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			DimText.Render(step.Name),
			style.Render(statusText),
		))
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(DimText.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	switch {
	case m.running:
		spinners := []string{"⟳", "◐", "◓", "◑", "◒"}
		idx := int(time.Now().UnixMilli()/100) % len(spinners)
		parts = append(parts, SchedulerScraping.Render(fmt.Sprintf("%s Scraping (%s)",
			spinners[idx], time.Since(m.runStarted).Round(time.Second))))
	case m.paused:
		parts = append(parts, SchedulerPaused.Render("○ Scheduler paused"))
	default:
		parts = append(parts, SchedulerIdle.Render("● Idle"))
	}

	if m.lastCycle != "" {
		parts = append(parts, "Last cycle: "+m.lastCycle)
	}
	if !m.nextCycle.IsZero() && !m.running {
		until := time.Until(m.nextCycle).Round(time.Second)
		if until > 0 {
			parts = append(parts, fmt.Sprintf("Next in %s", until))
		}
	}
	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, DimText.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
var OnStartModules func()

// OnRunCycle is called when the user asks for an immediate scrape.
var OnRunCycle func()

// OnPause is called when the user pauses or resumes the scheduler.
var OnPause func(paused bool)

// Run starts the Bubble Tea program.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
