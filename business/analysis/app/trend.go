package app

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
)

var (
	hundred   = decimal.NewFromInt(100)
	slopeBand = decimal.RequireFromString("0.5") // percent of mean per point
)

const (
	minTrendPoints = 3
	fullDataPoints = 20.0
	fullSpanDays   = 30.0
	lowConfidence  = 0.3
)

func (e *Engine) trend(s series, mode domain.Mode) (domain.TrendDelta, bool) {
	n := len(s.records)
	if n < 2 {
		return domain.TrendDelta{}, false
	}

	oldRec, newRec := s.records[n-2], s.records[n-1]
	if mode == domain.ModeWindow {
		oldRec = s.records[0]
	}

	pct, ok := domain.PercentChange(oldRec.Price, newRec.Price)
	if !ok || pct.Abs().LessThan(e.th.PriceChangePct) {
		return domain.TrendDelta{}, false
	}

	values := prices(s.records)
	return domain.TrendDelta{
		Series:      s.id,
		OldRecordID: oldRec.ID,
		NewRecordID: newRec.ID,
		OldPrice:    oldRec.Price,
		NewPrice:    newRec.Price,
		Change:      newRec.Price.Sub(oldRec.Price),
		ChangePct:   pct,
		Direction:   direction(values),
		Confidence:  confidence(s),
		Points:      n,
	}, true
}

// direction fits a least-squares line over the point index and compares
// its slope, as a percentage of the mean, against ±0.5%.
func direction(values []decimal.Decimal) domain.Direction {
	n := len(values)
	if n < minTrendPoints {
		return domain.DirectionStable
	}
	avg := mean(values)
	if avg.IsZero() {
		return domain.DirectionStable
	}

	xMean := decimal.NewFromInt(int64(n - 1)).Div(decimal.NewFromInt(2))
	num, den := decimal.Zero, decimal.Zero
	for i, y := range values {
		dx := decimal.NewFromInt(int64(i)).Sub(xMean)
		num = num.Add(dx.Mul(y.Sub(avg)))
		den = den.Add(dx.Mul(dx))
	}
	normalized := num.Div(den).Div(avg).Mul(hundred)

	switch {
	case normalized.GreaterThan(slopeBand):
		return domain.DirectionUp
	case normalized.LessThan(slopeBand.Neg()):
		return domain.DirectionDown
	default:
		return domain.DirectionStable
	}
}

// confidence weighs point count, stability and time span.
func confidence(s series) float64 {
	n := len(s.records)
	if n < minTrendPoints {
		return lowConfidence
	}

	values := prices(s.records)
	data := math.Min(float64(n)/fullDataPoints, 1)

	stability := 0.0
	if avg := mean(values); avg.IsPositive() {
		ratio := stdDev(values, avg).Div(avg).InexactFloat64()
		stability = math.Max(0, 1-ratio*2)
	}

	first, last := s.records[0].ObservedAt, s.records[n-1].ObservedAt
	days := math.Floor(last.Sub(first).Hours() / 24)
	span := math.Min(days/fullSpanDays, 1)

	c := data*0.4 + stability*0.4 + span*0.2
	c = math.Max(0.1, math.Min(1, c))
	return math.Round(c*100) / 100
}

func sortTrends(ds []domain.TrendDelta) {
	sort.SliceStable(ds, func(i, j int) bool {
		ai, aj := ds[i].ChangePct.Abs(), ds[j].ChangePct.Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return seriesLess(ds[i].Series, ds[j].Series)
	})
}

func seriesLess(a, b domain.Series) bool {
	if a.Platform != b.Platform {
		return a.Platform < b.Platform
	}
	if a.Region != b.Region {
		return a.Region < b.Region
	}
	if a.ModelKey != b.ModelKey {
		return a.ModelKey < b.ModelKey
	}
	return a.Condition < b.Condition
}
