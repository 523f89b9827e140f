package app

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
)

// arbitrage compares the cheapest and dearest current offers of a market.
// It needs at least two platform/region offers and a positive spread that
// passes either threshold arm.
func (e *Engine) arbitrage(m market) (domain.ArbitrageOpportunity, bool) {
	offers := m.offers()
	if len(offers) < 2 {
		return domain.ArbitrageOpportunity{}, false
	}

	buy, sell := offers[0], offers[0]
	for _, o := range offers[1:] {
		if o.Price.LessThan(buy.Price) || (o.Price.Equal(buy.Price) && preferred(o, buy)) {
			buy = o
		}
		if o.Price.GreaterThan(sell.Price) || (o.Price.Equal(sell.Price) && preferred(o, sell)) {
			sell = o
		}
	}

	spread := domain.CalculateSpread(buy.Price, sell.Price)
	if !spread.Absolute.IsPositive() {
		return domain.ArbitrageOpportunity{}, false
	}
	absHit := e.th.ArbitrageAbs.IsPositive() && spread.Absolute.GreaterThanOrEqual(e.th.ArbitrageAbs)
	pctHit := e.th.ArbitragePct.IsPositive() && spread.Percent.GreaterThanOrEqual(e.th.ArbitragePct)
	if !absHit && !pctHit {
		return domain.ArbitrageOpportunity{}, false
	}

	return domain.ArbitrageOpportunity{
		ModelKey:  m.modelKey,
		Model:     m.model,
		Condition: m.condition,
		Buy:       buy,
		Sell:      sell,
		Spread:    spread,
		Offers:    len(offers),
	}, true
}

// bestDeal picks the lowest current offer and measures it against the mean
// of every price of the market in the window.
func bestDeal(m market) (domain.BestDeal, bool) {
	offers := m.offers()
	if len(offers) == 0 {
		return domain.BestDeal{}, false
	}

	best := offers[0]
	for _, o := range offers[1:] {
		if o.Price.LessThan(best.Price) || (o.Price.Equal(best.Price) && preferred(o, best)) {
			best = o
		}
	}

	avg := mean(prices(m.records))
	savings := avg.Sub(best.Price)
	pct := decimal.Zero
	if !avg.IsZero() {
		pct = savings.Div(avg).Mul(hundred).Round(2)
	}

	return domain.BestDeal{
		ModelKey:   m.modelKey,
		Model:      m.model,
		Condition:  m.condition,
		Offer:      best,
		Mean:       avg.Round(2),
		Savings:    savings.Round(2),
		SavingsPct: pct,
	}, true
}

func sortArbitrage(as []domain.ArbitrageOpportunity) {
	sort.SliceStable(as, func(i, j int) bool {
		if !as[i].Spread.Percent.Equal(as[j].Spread.Percent) {
			return as[i].Spread.Percent.GreaterThan(as[j].Spread.Percent)
		}
		if as[i].ModelKey != as[j].ModelKey {
			return as[i].ModelKey < as[j].ModelKey
		}
		return as[i].Condition < as[j].Condition
	})
}

func sortDeals(ds []domain.BestDeal) {
	sort.SliceStable(ds, func(i, j int) bool {
		if !ds[i].SavingsPct.Equal(ds[j].SavingsPct) {
			return ds[i].SavingsPct.GreaterThan(ds[j].SavingsPct)
		}
		if ds[i].ModelKey != ds[j].ModelKey {
			return ds[i].ModelKey < ds[j].ModelKey
		}
		return ds[i].Condition < ds[j].Condition
	})
}
