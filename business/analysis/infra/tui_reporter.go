package infra

import (
	"context"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/pkg/ui"
)

// TUIReporter forwards bundles to the running dashboard.
type TUIReporter struct {
	send func(msg any)
}

// NewTUIReporter creates a TUIReporter bound to ui.Send.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{send: func(msg any) { ui.Send(msg) }}
}

// Report sends the bundle as an InsightsMsg.
func (r *TUIReporter) Report(ctx context.Context, b *domain.Bundle) error {
	r.send(ui.InsightsMsg{Bundle: b})
	return nil
}
