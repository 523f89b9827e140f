// Package app contains the analysis engine and service.
package app

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/config"
)

// Thresholds gate which insights are reported.
type Thresholds struct {
	PriceChangePct decimal.Decimal // |Δ%| at or above this is a trend delta
	VolatilityPct  decimal.Decimal // CV% at or above this is unstable; zero disables
	ArbitrageAbs   decimal.Decimal // zero disables the absolute arm
	ArbitragePct   decimal.Decimal // zero disables the percentage arm
	TopN           int             // best deal cap; zero means no cap
}

// ThresholdsFromConfig reads the analysis section.
func ThresholdsFromConfig(cfg config.AnalysisConfig) Thresholds {
	return Thresholds{
		PriceChangePct: cfg.PriceChangeThresholdDecimal(),
		VolatilityPct:  cfg.VolatilityThresholdDecimal(),
		ArbitrageAbs:   cfg.ArbitrageAbsThresholdDecimal(),
		ArbitragePct:   cfg.ArbitragePctThresholdDecimal(),
		TopN:           cfg.TopN,
	}
}

// Engine derives insights from a snapshot of price records. It holds no
// state between calls; equal input gives equal output.
type Engine struct {
	th Thresholds
}

func NewEngine(th Thresholds) *Engine {
	return &Engine{th: th}
}

// Analyze builds the insight bundle for records.
func (e *Engine) Analyze(records []pricingDomain.PriceRecord, opts domain.Options) *domain.Bundle {
	if opts.Mode == "" {
		opts.Mode = domain.ModeLatest
	}
	snapshot := window(records, opts)

	b := &domain.Bundle{
		GeneratedAt:            opts.Now,
		WindowDays:             opts.WindowDays,
		Mode:                   opts.Mode,
		TrendDeltas:            []domain.TrendDelta{},
		VolatilityReports:      []domain.VolatilityReport{},
		ArbitrageOpportunities: []domain.ArbitrageOpportunity{},
		BestDeals:              []domain.BestDeal{},
	}
	if len(snapshot) > 0 {
		b.Currency = snapshot[0].Currency
	}

	for _, g := range groupSeries(snapshot) {
		if d, ok := e.trend(g, opts.Mode); ok {
			b.TrendDeltas = append(b.TrendDeltas, d)
		}
		if v, ok := e.volatility(g); ok {
			b.VolatilityReports = append(b.VolatilityReports, v)
		}
	}
	sortTrends(b.TrendDeltas)
	sortVolatility(b.VolatilityReports)

	for _, m := range groupMarkets(snapshot) {
		if a, ok := e.arbitrage(m); ok {
			b.ArbitrageOpportunities = append(b.ArbitrageOpportunities, a)
		}
		if d, ok := bestDeal(m); ok {
			b.BestDeals = append(b.BestDeals, d)
		}
	}
	sortArbitrage(b.ArbitrageOpportunities)
	sortDeals(b.BestDeals)
	if e.th.TopN > 0 && len(b.BestDeals) > e.th.TopN {
		b.BestDeals = b.BestDeals[:e.th.TopN]
	}

	b.Summary = summarize(snapshot, opts.Now)
	return b
}

// window copies the records inside the analysis window, ordered by
// (ObservedAt, ID).
func window(records []pricingDomain.PriceRecord, opts domain.Options) []pricingDomain.PriceRecord {
	var since time.Time
	if opts.WindowDays > 0 && !opts.Now.IsZero() {
		since = opts.Now.Add(-time.Duration(opts.WindowDays) * 24 * time.Hour)
	}

	out := make([]pricingDomain.PriceRecord, 0, len(records))
	for _, r := range records {
		if !since.IsZero() && r.ObservedAt.Before(since) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return pricingDomain.RecordLess(out[i], out[j])
	})
	return out
}

// series is one (platform, region, model, condition) group in time order.
type series struct {
	id      domain.Series
	key     pricingDomain.DedupKey
	records []pricingDomain.PriceRecord
}

func groupSeries(records []pricingDomain.PriceRecord) []series {
	index := make(map[pricingDomain.DedupKey]int)
	var out []series
	for _, r := range records {
		k := r.Key()
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, series{
				key: k,
				id: domain.Series{
					Platform:  r.Platform,
					Region:    r.Region,
					ModelKey:  k.ModelKey,
					Model:     r.Model,
					Condition: r.Condition,
				},
			})
		}
		out[i].records = append(out[i].records, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].key.Less(out[j].key)
	})
	return out
}

// market holds every record of one (model, condition) across platforms
// and regions.
type market struct {
	modelKey  string
	model     pricingDomain.PhoneModel
	condition pricingDomain.Condition
	records   []pricingDomain.PriceRecord
}

type marketKey struct {
	model     string
	condition pricingDomain.Condition
}

func groupMarkets(records []pricingDomain.PriceRecord) []market {
	index := make(map[marketKey]int)
	var out []market
	for _, r := range records {
		k := marketKey{model: r.Model.Key(), condition: r.Condition}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, market{modelKey: k.model, model: r.Model, condition: r.Condition})
		}
		out[i].records = append(out[i].records, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].modelKey != out[j].modelKey {
			return out[i].modelKey < out[j].modelKey
		}
		return out[i].condition < out[j].condition
	})
	return out
}

// offers returns the latest available record for each (platform, region),
// ordered by platform then region.
func (m market) offers() []domain.Offer {
	type slot struct{ platform, region string }
	latest := make(map[slot]pricingDomain.PriceRecord)
	for _, r := range m.records {
		if !r.Available {
			continue
		}
		s := slot{r.Platform, r.Region}
		if cur, ok := latest[s]; !ok || pricingDomain.RecordLess(cur, r) {
			latest[s] = r
		}
	}

	out := make([]domain.Offer, 0, len(latest))
	for _, r := range latest {
		out = append(out, domain.Offer{
			RecordID:   r.ID,
			Platform:   r.Platform,
			Region:     r.Region,
			Price:      r.Price,
			ObservedAt: r.ObservedAt,
			SourceURL:  r.SourceURL,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Platform != out[j].Platform {
			return out[i].Platform < out[j].Platform
		}
		return out[i].Region < out[j].Region
	})
	return out
}

// preferred breaks price ties: the most recent offer wins, then the
// lexically smaller platform, then region.
func preferred(a, b domain.Offer) bool {
	if !a.ObservedAt.Equal(b.ObservedAt) {
		return a.ObservedAt.After(b.ObservedAt)
	}
	if a.Platform != b.Platform {
		return a.Platform < b.Platform
	}
	return a.Region < b.Region
}

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(values[0], values[1:]...).Div(decimal.NewFromInt(int64(len(values))))
}

func prices(records []pricingDomain.PriceRecord) []decimal.Decimal {
	out := make([]decimal.Decimal, len(records))
	for i, r := range records {
		out[i] = r.Price
	}
	return out
}
