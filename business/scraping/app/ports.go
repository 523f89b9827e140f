// Package app contains application services and port definitions for the scraping context.
package app

import (
	"context"
	"time"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
)

// Adapter scrapes one marketplace in one region.
type Adapter interface {
	// Platform returns the PlatformSpec the adapter was built from.
	Platform() domain.PlatformSpec

	// BuildSearchURL returns the search page for a catalog model.
	BuildSearchURL(model pricingDomain.PhoneModel) (string, error)

	// Scrape fetches and parses listings for models. Network and parse
	// failures are reported in the result, never returned.
	Scrape(ctx context.Context, models []pricingDomain.PhoneModel) *domain.AdapterResult
}

// Deps are the shared services handed to adapter constructors.
type Deps struct {
	Fetcher    *Fetcher
	Currencies *currency.Registry
	Catalog    *pricingDomain.Catalog // optional, enables MatchModel
	Log        logger.LoggerInterface
	Now        func() time.Time
}

// Clock returns Now or time.Now.
func (d Deps) Clock() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Constructor builds an adapter. Missing credentials or an unusable spec
// must be reported here as a configuration error.
type Constructor func(spec domain.PlatformSpec, deps Deps) (Adapter, error)
