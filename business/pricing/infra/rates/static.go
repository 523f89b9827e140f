// Package rates provides exchange rate sources for normalization.
package rates

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
)

// StaticProvider serves fixed rates from configuration.
type StaticProvider struct {
	base       *currency.Currency
	currencies *currency.Registry
	rates      map[string]decimal.Decimal
}

// NewStaticProvider builds a provider from units-per-base rates keyed by code.
func NewStaticProvider(base *currency.Currency, currencies *currency.Registry, rates map[string]decimal.Decimal) *StaticProvider {
	m := make(map[string]decimal.Decimal, len(rates))
	for code, v := range rates {
		m[strings.ToUpper(code)] = v
	}
	return &StaticProvider{base: base, currencies: currencies, rates: m}
}

// Rate returns the configured rate; the time is ignored.
func (p *StaticProvider) Rate(_ context.Context, code string, at time.Time) (currency.Rate, error) {
	quote, err := p.currencies.Lookup(code)
	if err != nil {
		return currency.Rate{}, apperror.New(apperror.CodeUnknownCurrency, apperror.WithCause(err), apperror.WithContext(code))
	}
	if quote.Equals(p.base) {
		return currency.Identity(p.base, at), nil
	}

	v, ok := p.rates[quote.Code()]
	if !ok {
		return currency.Rate{}, apperror.New(apperror.CodeRateUnavailable, apperror.WithContext(quote.Code()))
	}
	r, err := currency.NewRate(p.base, quote, v, at, "static")
	if err != nil {
		return currency.Rate{}, apperror.New(apperror.CodeRateUnavailable, apperror.WithCause(err), apperror.WithContext(quote.Code()))
	}
	return r, nil
}
