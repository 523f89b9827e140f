package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// OpportunityRow represents an arbitrage opportunity in the list.
type OpportunityRow struct {
	Model     string
	Condition string
	Buy       string
	Sell      string
	Spread    decimal.Decimal
	SpreadPct decimal.Decimal
}

// OpportunitiesComponent renders the arbitrage list.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	maxRows int
	offset  int
}

// NewOpportunitiesComponent creates a new opportunities component.
func NewOpportunitiesComponent(maxRows int) *OpportunitiesComponent {
	return &OpportunitiesComponent{
		rows:    make([]OpportunityRow, 0),
		maxRows: maxRows,
	}
}

// Update replaces the list with the latest analysis.
func (o *OpportunitiesComponent) Update(rows []OpportunityRow) {
	o.rows = rows
	o.offset = 0
}

// Clear clears all opportunities.
func (o *OpportunitiesComponent) Clear() {
	o.rows = make([]OpportunityRow, 0)
	o.offset = 0
}

// Len returns the number of opportunities held.
func (o *OpportunitiesComponent) Len() int {
	return len(o.rows)
}

// ScrollUp moves the view one row up.
func (o *OpportunitiesComponent) ScrollUp() {
	if o.offset > 0 {
		o.offset--
	}
}

// ScrollDown moves the view one row down.
func (o *OpportunitiesComponent) ScrollDown() {
	if o.offset+o.maxRows < len(o.rows) {
		o.offset++
	}
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0EA5E9"))
	spreadStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))

	if len(o.rows) == 0 {
		return headerStyle.Render("ARBITRAGE") + "\n\nNo opportunities above threshold..."
	}

	end := min(o.offset+o.maxRows, len(o.rows))
	result := headerStyle.Render(fmt.Sprintf("ARBITRAGE (%d-%d of %d)", o.offset+1, end, len(o.rows))) + "\n"
	result += "┌────────────────────────────┬───────────┬──────────────────┬──────────────────┬────────────────┐\n"
	result += "│ Model                      │ Grade     │ Buy              │ Sell             │ Spread         │\n"
	result += "├────────────────────────────┼───────────┼──────────────────┼──────────────────┼────────────────┤\n"

	for _, row := range o.rows[o.offset:end] {
		result += fmt.Sprintf("│ %-26s │ %-9s │ %-16s │ %-16s │ %s │\n",
			truncate(row.Model, 26),
			row.Condition,
			truncate(row.Buy, 16),
			truncate(row.Sell, 16),
			spreadStyle.Render(fmt.Sprintf("%7s %5s%%", row.Spread.StringFixed(0), row.SpreadPct.StringFixed(1))),
		)
	}

	result += "└────────────────────────────┴───────────┴──────────────────┴──────────────────┴────────────────┘"
	return result
}
