package components

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// PlatformStatus is the outcome of the last cycle for one platform and region.
type PlatformStatus struct {
	Platform  string
	Region    string
	Records   int
	Dropped   int
	Healthy   bool
	Reason    string
	UpdatedAt time.Time
}

func (p PlatformStatus) key() string {
	return p.Platform + "/" + p.Region
}

// StatusComponent renders per-platform scrape status.
type StatusComponent struct {
	platforms map[string]PlatformStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{
		platforms: make(map[string]PlatformStatus),
	}
}

// Update records a platform's status.
func (s *StatusComponent) Update(status PlatformStatus) {
	s.platforms[status.key()] = status
}

// Failing returns the number of platforms whose last run failed.
func (s *StatusComponent) Failing() int {
	n := 0
	for _, p := range s.platforms {
		if !p.Healthy {
			n++
		}
	}
	return n
}

// View renders the status component.
func (s *StatusComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0EA5E9"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F43F5E"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("PLATFORMS"))
	b.WriteString("\n\n")

	if len(s.platforms) == 0 {
		b.WriteString(dimStyle.Render("  No cycle yet"))
		return b.String()
	}

	keys := make([]string, 0, len(s.platforms))
	for k := range s.platforms {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		p := s.platforms[k]
		status := okStyle.Render("●")
		detail := fmt.Sprintf("%d records", p.Records)
		if p.Dropped > 0 {
			detail += fmt.Sprintf(", %d dropped", p.Dropped)
		}
		if !p.Healthy {
			status = failStyle.Render("○")
			detail = failStyle.Render(truncate(p.Reason, 40))
		}
		b.WriteString(fmt.Sprintf("├─ %s %-24s %s\n", status, truncate(k, 24), detail))
	}
	return b.String()
}
