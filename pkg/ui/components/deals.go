// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// DealRow is one best deal in the table.
type DealRow struct {
	Model      string
	Condition  string
	Platform   string
	Region     string
	Price      decimal.Decimal
	SavingsPct decimal.Decimal
}

// DealsComponent renders the best deals table.
type DealsComponent struct {
	rows     []DealRow
	currency string
}

// NewDealsComponent creates a new deals component.
func NewDealsComponent() *DealsComponent {
	return &DealsComponent{
		rows:     make([]DealRow, 0),
		currency: "USD",
	}
}

// Update replaces the deals shown.
func (d *DealsComponent) Update(rows []DealRow, currency string) {
	d.rows = rows
	if currency != "" {
		d.currency = currency
	}
}

// View renders the deals component.
func (d *DealsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0EA5E9"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F43F5E"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("BEST DEALS (%s)", d.currency)))
	b.WriteString("\n\n")

	if len(d.rows) == 0 {
		b.WriteString(dimStyle.Render("  Waiting for analysis..."))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  %-28s  %-9s  %-16s  %10s  %8s\n", "Model", "Grade", "Where", "Price", "vs avg"))
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 80)) + "\n")

	for _, row := range d.rows {
		style := positiveStyle
		if row.SavingsPct.IsNegative() {
			style = negativeStyle
		}
		b.WriteString(fmt.Sprintf("  %-28s  %-9s  %-16s  %10s  %s\n",
			truncate(row.Model, 28),
			row.Condition,
			truncate(row.Platform+"/"+row.Region, 16),
			row.Price.StringFixed(2),
			style.Render(fmt.Sprintf("%7s%%", row.SavingsPct.Neg().StringFixed(1))),
		))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
