package app

import (
	"context"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
)

// PageFunc fetches and parses one search URL. models are the catalog
// entries that share the URL.
type PageFunc func(ctx context.Context, target string, models []pricingDomain.PhoneModel) ([]pricingDomain.Observation, error)

// SearchGroup is one distinct search URL and the models it covers.
type SearchGroup struct {
	URL    string
	Models []pricingDomain.PhoneModel
}

// GroupByURL builds each model's search URL and merges models whose URL
// is identical, keeping first-seen order.
func GroupByURL(a Adapter, models []pricingDomain.PhoneModel) ([]SearchGroup, []error) {
	var groups []SearchGroup
	var errs []error
	index := make(map[string]int)

	for _, m := range models {
		u, err := a.BuildSearchURL(m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if i, ok := index[u]; ok {
			groups[i].Models = append(groups[i].Models, m)
			continue
		}
		index[u] = len(groups)
		groups = append(groups, SearchGroup{URL: u, Models: []pricingDomain.PhoneModel{m}})
	}
	return groups, errs
}

// ScrapeModels runs page for every distinct search URL in order. It stops
// at the first context error and records it; other failures are recorded
// and the loop continues.
func ScrapeModels(ctx context.Context, a Adapter, models []pricingDomain.PhoneModel, page PageFunc) *domain.AdapterResult {
	spec := a.Platform()
	res := &domain.AdapterResult{}

	groups, errs := GroupByURL(a, models)
	for _, err := range errs {
		res.AddError(ToScrapeError(spec, err))
	}

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			res.AddError(ToScrapeError(spec, err))
			break
		}

		res.Attempted++
		obs, err := page(ctx, g.URL, g.Models)
		if err != nil {
			res.AddError(ToScrapeError(spec, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		res.Succeeded++
		res.Observations = append(res.Observations, obs...)
	}
	return res
}

// FallbackStorage returns the storage to assume for a listing that names
// none, which is only safe when one model shares the search URL.
func FallbackStorage(models []pricingDomain.PhoneModel) string {
	if len(models) == 1 {
		return models[0].Storage
	}
	return ""
}
