package app

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
)

func (e *Engine) volatility(s series) (domain.VolatilityReport, bool) {
	n := len(s.records)
	if n < 2 {
		return domain.VolatilityReport{}, false
	}

	values := prices(s.records)
	avg := mean(values)
	sd := stdDev(values, avg)

	cv := decimal.Zero
	if !avg.IsZero() {
		cv = sd.Div(avg).Mul(hundred).Round(2)
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = decimal.Min(lo, v)
		hi = decimal.Max(hi, v)
	}

	return domain.VolatilityReport{
		Series:   s.id,
		Count:    n,
		Mean:     avg.Round(2),
		StdDev:   sd.Round(2),
		CVPct:    cv,
		Min:      lo,
		Max:      hi,
		Unstable: e.th.VolatilityPct.IsPositive() && cv.GreaterThanOrEqual(e.th.VolatilityPct),
	}, true
}

// stdDev is the sample standard deviation (n-1). The square root is taken
// in float64; decimal has none.
func stdDev(values []decimal.Decimal, avg decimal.Decimal) decimal.Decimal {
	if len(values) < 2 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		d := v.Sub(avg)
		sum = sum.Add(d.Mul(d))
	}
	variance := sum.Div(decimal.NewFromInt(int64(len(values) - 1)))
	return decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64()))
}

func sortVolatility(vs []domain.VolatilityReport) {
	sort.SliceStable(vs, func(i, j int) bool {
		if !vs[i].CVPct.Equal(vs[j].CVPct) {
			return vs[i].CVPct.GreaterThan(vs[j].CVPct)
		}
		return seriesLess(vs[i].Series, vs[j].Series)
	})
}
