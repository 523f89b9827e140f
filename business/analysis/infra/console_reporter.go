// Package infra contains infrastructure adapters for the analysis context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
)

const (
	rule = "================================================================================"
	thin = "--------------------------------------------------------------------------------"
)

// ConsoleReporter prints an insight bundle for CLI output.
type ConsoleReporter struct {
	out   io.Writer
	limit int
}

// NewConsoleReporter creates a ConsoleReporter writing to out. A nil out
// means stdout; limit caps each section, 0 prints everything.
func NewConsoleReporter(out io.Writer, limit int) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out, limit: limit}
}

// Report prints the bundle section by section.
func (r *ConsoleReporter) Report(ctx context.Context, b *domain.Bundle) error {
	w := r.out
	cur := b.Currency
	if cur == "" {
		cur = "USD"
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "PRICE INSIGHTS  (%d days, %s mode, generated %s)\n",
		b.WindowDays, b.Mode, b.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintln(w, rule)

	s := b.Summary
	fmt.Fprintln(w, "MARKET SUMMARY")
	fmt.Fprintf(w, "  Records:        %d (%d in the last 7 days)\n", s.TotalRecords, s.RecentRecords)
	fmt.Fprintf(w, "  Models:         %d\n", s.Models)
	fmt.Fprintf(w, "  Platforms:      %d\n", s.Platforms)
	if len(s.AvgPriceByBrand) > 0 {
		brands := make([]string, 0, len(s.AvgPriceByBrand))
		for brand := range s.AvgPriceByBrand {
			brands = append(brands, brand)
		}
		sort.Strings(brands)
		fmt.Fprintln(w, "  Average price by brand:")
		for _, brand := range brands {
			fmt.Fprintf(w, "    %-14s %s %s\n", brand, s.AvgPriceByBrand[brand].StringFixed(2), cur)
		}
	}
	if len(s.TopModels) > 0 {
		fmt.Fprintln(w, "  Most tracked:")
		for _, m := range s.TopModels {
			fmt.Fprintf(w, "    %-30s %d\n", m.Model, m.Records)
		}
	}

	fmt.Fprintln(w, thin)
	fmt.Fprintf(w, "BEST DEALS (%d)\n", len(b.BestDeals))
	for i, d := range b.BestDeals {
		if r.capped(i) {
			break
		}
		fmt.Fprintf(w, "  %-30s %-9s %s %s on %s/%s (%s%% below avg %s)\n",
			d.Model.String(), d.Condition, d.Offer.Price.StringFixed(2), cur,
			d.Offer.Platform, d.Offer.Region, d.SavingsPct.StringFixed(2), d.Mean.StringFixed(2))
	}

	fmt.Fprintln(w, thin)
	fmt.Fprintf(w, "ARBITRAGE OPPORTUNITIES (%d)\n", len(b.ArbitrageOpportunities))
	for i, a := range b.ArbitrageOpportunities {
		if r.capped(i) {
			break
		}
		fmt.Fprintf(w, "  %-30s %-9s buy %s/%s @ %s, sell %s/%s @ %s: +%s %s (%s%%)\n",
			a.Model.String(), a.Condition,
			a.Buy.Platform, a.Buy.Region, a.Buy.Price.StringFixed(2),
			a.Sell.Platform, a.Sell.Region, a.Sell.Price.StringFixed(2),
			a.Spread.Absolute.StringFixed(2), cur, a.Spread.Percent.StringFixed(2))
	}

	fmt.Fprintln(w, thin)
	fmt.Fprintf(w, "PRICE CHANGES (%d)\n", len(b.TrendDeltas))
	for i, t := range b.TrendDeltas {
		if r.capped(i) {
			break
		}
		fmt.Fprintf(w, "  %-30s %-9s %s/%s: %s -> %s (%s%%, %s, confidence %.2f)\n",
			t.Model.String(), t.Condition, t.Platform, t.Region,
			t.OldPrice.StringFixed(2), t.NewPrice.StringFixed(2),
			t.ChangePct.StringFixed(2), t.Direction, t.Confidence)
	}

	fmt.Fprintln(w, thin)
	fmt.Fprintf(w, "VOLATILITY (%d)\n", len(b.VolatilityReports))
	for i, v := range b.VolatilityReports {
		if r.capped(i) {
			break
		}
		flag := ""
		if v.Unstable {
			flag = "  UNSTABLE"
		}
		fmt.Fprintf(w, "  %-30s %-9s %s/%s: mean %s, sd %s, cv %s%% over %d%s\n",
			v.Model.String(), v.Condition, v.Platform, v.Region,
			v.Mean.StringFixed(2), v.StdDev.StringFixed(2), v.CVPct.StringFixed(2), v.Count, flag)
	}
	fmt.Fprintln(w, rule)
	return nil
}

func (r *ConsoleReporter) capped(i int) bool {
	return r.limit > 0 && i >= r.limit
}
