// Package domain contains the insight types produced by the analysis context.
package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Spread is the price difference between a cheap and an expensive offer.
type Spread struct {
	Low      decimal.Decimal `json:"low"`
	High     decimal.Decimal `json:"high"`
	Absolute decimal.Decimal `json:"absolute"` // High - Low
	Percent  decimal.Decimal `json:"percent"`  // (High - Low) / Low * 100, 2 dp
}

// CalculateSpread computes the spread between two prices. A zero low price
// yields a zero percentage.
func CalculateSpread(low, high decimal.Decimal) Spread {
	absolute := high.Sub(low)
	pct := decimal.Zero
	if !low.IsZero() {
		pct = absolute.Div(low).Mul(hundred).Round(2)
	}
	return Spread{
		Low:      low,
		High:     high,
		Absolute: absolute,
		Percent:  pct,
	}
}

// PercentChange returns (new - old) / old * 100 rounded to 2 dp. ok is false
// when old is zero.
func PercentChange(old, new decimal.Decimal) (decimal.Decimal, bool) {
	if old.IsZero() {
		return decimal.Zero, false
	}
	return new.Sub(old).Div(old).Mul(hundred).Round(2), true
}
