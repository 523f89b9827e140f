// Package sample generates deterministic listings for demo runs and for
// platforms without a real adapter. The same platform, model, condition
// and day always produce the same price.
package sample

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/app"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/config"
)

const defaultBase = 600

var basePrices = map[string]int64{
	"iphone 16":         800,
	"iphone 16 plus":    900,
	"iphone 16 pro":     1000,
	"iphone 16 pro max": 1200,
	"pixel 9":           600,
	"pixel 9 pro":       900,
	"pixel 9 pro xl":    1000,
	"pixel 9 pro fold":  1600,
	"galaxy s24":        700,
	"galaxy s24+":       900,
	"galaxy s24 ultra":  1100,
	"galaxy z fold6":    1700,
}

var conditionFactors = map[pricingDomain.Condition]decimal.Decimal{
	pricingDomain.ConditionExcellent: decimal.RequireFromString("0.95"),
	pricingDomain.ConditionGood:      decimal.RequireFromString("0.85"),
	pricingDomain.ConditionFair:      decimal.RequireFromString("0.70"),
}

// regionFactors scale a USD base into the region's listing currency.
var regionFactors = map[string]decimal.Decimal{
	"Europe": decimal.RequireFromString("0.85"),
	"Japan":  decimal.NewFromInt(110),
	"India":  decimal.NewFromInt(75),
}

// Scraper is the sample adapter.
type Scraper struct {
	spec domain.PlatformSpec
	deps app.Deps
}

// New never fails; the sample adapter needs no network or credentials.
func New(spec domain.PlatformSpec, deps app.Deps) (app.Adapter, error) {
	if spec.Currency == "" {
		spec.Currency = config.RegionCurrency(spec.Region)
	}
	if spec.Currency == "" {
		spec.Currency = "USD"
	}
	return &Scraper{spec: spec, deps: deps}, nil
}

func (s *Scraper) Platform() domain.PlatformSpec {
	return s.spec
}

func (s *Scraper) BuildSearchURL(model pricingDomain.PhoneModel) (string, error) {
	slug := app.Slug(model.Brand + " " + model.Name + " " + model.Storage)
	if s.spec.BaseURL == "" {
		return "sample://" + slug, nil
	}
	return strings.TrimRight(s.spec.BaseURL, "/") + "/product/" + slug, nil
}

// Scrape emits one listing per model and grade.
func (s *Scraper) Scrape(ctx context.Context, models []pricingDomain.PhoneModel) *domain.AdapterResult {
	result := &domain.AdapterResult{}
	at := s.deps.Clock()
	day := at.UTC().Format("2006-01-02")

	for _, m := range models {
		if err := ctx.Err(); err != nil {
			result.AddError(app.ToScrapeError(s.spec, err))
			return result
		}
		result.Attempted++

		link, _ := s.BuildSearchURL(m)
		for _, c := range pricingDomain.Conditions() {
			h := hash(s.spec.Name, s.spec.Region, m.Key(), string(c), day)
			result.Observations = append(result.Observations, pricingDomain.Observation{
				Platform:      s.spec.Name,
				Region:        s.spec.Region,
				Brand:         m.Brand,
				Model:         m.Name,
				StorageText:   m.Storage,
				ConditionText: string(c),
				Amount:        s.price(m, c, h),
				Currency:      s.spec.Currency,
				ObservedAt:    at,
				SourceURL:     link + "?condition=" + strings.ToLower(string(c)),
				Title:         m.String(),
				Available:     h%4 != 0,
			})
		}
		result.Succeeded++
	}
	return result
}

// price is base × grade × region × a variance in [0.90, 1.10].
func (s *Scraper) price(m pricingDomain.PhoneModel, c pricingDomain.Condition, h uint64) decimal.Decimal {
	base, ok := basePrices[strings.ToLower(m.Name)]
	if !ok {
		base = defaultBase
	}
	p := decimal.NewFromInt(base).Mul(conditionFactors[c])
	if f, ok := regionFactors[s.spec.Region]; ok {
		p = p.Mul(f)
	}
	variance := decimal.New(int64(900+h%201), -3)
	return p.Mul(variance).Round(2)
}

func hash(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
