// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/app"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PricingService = di.NewToken[*app.PricingService]("pricing.PricingService")
	Normalizer     = di.NewToken[*app.Normalizer]("pricing.Normalizer")
	Catalog        = di.NewToken[*domain.Catalog]("pricing.Catalog")
)

// Private dependency tokens - internal to pricing module
var (
	Repository   = di.NewToken[app.Repository]("pricing:repository")
	RateProvider = di.NewToken[app.RateProvider]("pricing:rateProvider")
)

// Helper functions for type-safe access
func GetPricingService(c di.ServiceRegistry) *app.PricingService {
	return di.GetToken(c, PricingService)
}

func GetNormalizer(c di.ServiceRegistry) *app.Normalizer {
	return di.GetToken(c, Normalizer)
}

func GetCatalog(c di.ServiceRegistry) *domain.Catalog {
	return di.GetToken(c, Catalog)
}

func GetRepository(c di.ServiceRegistry) app.Repository {
	return di.GetToken(c, Repository)
}

func GetRateProvider(c di.ServiceRegistry) app.RateProvider {
	return di.GetToken(c, RateProvider)
}
