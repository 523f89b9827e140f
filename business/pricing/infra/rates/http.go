package rates

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/httpclient"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/ratelimit"
)

// latestResponse accepts both {"base": ...} and {"base_code": ...} shaped
// latest-rates payloads.
type latestResponse struct {
	Base       string                     `json:"base"`
	BaseCode   string                     `json:"base_code"`
	Rates      map[string]decimal.Decimal `json:"rates"`
	UpdateUnix int64                      `json:"time_last_update_unix"`
}

// HTTPProvider fetches the latest rate table from a JSON API.
type HTTPProvider struct {
	client     httpclient.Client
	limiter    *ratelimit.Limiter
	url        string
	base       *currency.Currency
	currencies *currency.Registry
}

// NewHTTPProvider queries url, which must return rates against base.
func NewHTTPProvider(client httpclient.Client, limiter *ratelimit.Limiter, url string, base *currency.Currency, currencies *currency.Registry) *HTTPProvider {
	return &HTTPProvider{
		client:     client,
		limiter:    limiter,
		url:        url,
		base:       base,
		currencies: currencies,
	}
}

// Rate fetches the table and returns the rate for code. The API only
// serves the latest table, so at is recorded but not used for lookup.
func (p *HTTPProvider) Rate(ctx context.Context, code string, at time.Time) (currency.Rate, error) {
	quote, err := p.currencies.Lookup(code)
	if err != nil {
		return currency.Rate{}, apperror.New(apperror.CodeUnknownCurrency, apperror.WithCause(err), apperror.WithContext(code))
	}
	if quote.Equals(p.base) {
		return currency.Identity(p.base, at), nil
	}

	table, asOf, err := p.fetch(ctx)
	if err != nil {
		return currency.Rate{}, err
	}

	v, ok := table[quote.Code()]
	if !ok {
		return currency.Rate{}, apperror.New(apperror.CodeRateUnavailable, apperror.WithContext(quote.Code()+" not in fx table"))
	}
	r, err := currency.NewRate(p.base, quote, v, asOf, "http")
	if err != nil {
		return currency.Rate{}, apperror.New(apperror.CodeRateUnavailable, apperror.WithCause(err))
	}
	return r, nil
}

func (p *HTTPProvider) fetch(ctx context.Context) (map[string]decimal.Decimal, time.Time, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, time.Time{}, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err), apperror.WithContext("fx provider"))
	}

	var body latestResponse
	req := p.client.NewRequestWithOptions(
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler),
		httpclient.WithLabels(httpclient.NewLabel("operation", "fx_latest")),
	).SetHeader("Accept", "application/json").SetResult(&body)

	if _, err := req.Get(ctx, p.url); err != nil {
		return nil, time.Time{}, apperror.External(apperror.CodeRateUnavailable, "fx provider", err)
	}

	base := body.Base
	if base == "" {
		base = body.BaseCode
	}
	if base != "" && !strings.EqualFold(base, p.base.Code()) {
		return nil, time.Time{}, apperror.New(apperror.CodeRateUnavailable,
			apperror.WithContext("fx provider base "+base+" != "+p.base.Code()))
	}

	table := make(map[string]decimal.Decimal, len(body.Rates))
	for code, v := range body.Rates {
		table[strings.ToUpper(code)] = v
	}

	asOf := time.Now().UTC()
	if body.UpdateUnix > 0 {
		asOf = time.Unix(body.UpdateUnix, 0).UTC()
	}
	return table, asOf, nil
}
