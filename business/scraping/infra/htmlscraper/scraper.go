// Package htmlscraper scrapes marketplaces that render listings as static
// HTML, using ordered CSS selector fallbacks.
package htmlscraper

import (
	"bytes"
	"context"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/app"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
)

// Scraper is the HTML adapter.
type Scraper struct {
	spec domain.PlatformSpec
	deps app.Deps
}

// New creates an HTML adapter. It needs listing and price selectors.
func New(spec domain.PlatformSpec, deps app.Deps) (app.Adapter, error) {
	if deps.Fetcher == nil || deps.Currencies == nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(spec.Key()+": fetcher and currencies are required"))
	}
	if len(spec.Selectors.Listing) == 0 || len(spec.Selectors.Price) == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(spec.Key()+": listing and price selectors are required"))
	}
	if _, err := app.BuildSearchURL(spec, pricingDomain.PhoneModel{}); err != nil {
		return nil, err
	}
	return &Scraper{spec: spec, deps: deps}, nil
}

func (s *Scraper) Platform() domain.PlatformSpec {
	return s.spec
}

func (s *Scraper) BuildSearchURL(model pricingDomain.PhoneModel) (string, error) {
	return app.BuildSearchURL(s.spec, model)
}

func (s *Scraper) Scrape(ctx context.Context, models []pricingDomain.PhoneModel) *domain.AdapterResult {
	return app.ScrapeModels(ctx, s, models, s.page)
}

func (s *Scraper) page(ctx context.Context, target string, models []pricingDomain.PhoneModel) ([]pricingDomain.Observation, error) {
	body, err := s.deps.Fetcher.Get(ctx, s.spec, app.FetchRequest{
		URL:     target,
		Headers: map[string]string{"Accept": "text/html,application/xhtml+xml"},
	})
	if err != nil {
		return nil, err
	}

	obs, skipped, err := Parse(bytes.NewReader(body), Page{
		Spec:       s.spec,
		URL:        target,
		Models:     models,
		Catalog:    s.deps.Catalog,
		Currencies: s.deps.Currencies,
		ObservedAt: s.deps.Clock(),
	})
	app.LogSkipped(ctx, s.deps.Log, s.spec, target, skipped)
	if err != nil {
		s.deps.Log.Warn(ctx, "search page not parsed",
			"platform", s.spec.Name,
			"region", s.spec.Region,
			"url", target,
			"error", err.Error(),
		)
		return nil, &app.FetchError{URL: target, Attempts: 1, Err: err}
	}
	return obs, nil
}
