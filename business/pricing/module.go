// Package pricing implements the pricing bounded context: normalization,
// exchange rates and the price history store.
package pricing

import (
	"context"
	"time"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/app"
	pricingDI "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/di"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/infra/rates"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/infra/store"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/config"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/di"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/httpclient"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/monolith"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/ratelimit"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pricingDI.Catalog, func(sr di.ServiceRegistry) *domain.Catalog {
		cfg := sr.Get("config").(*config.Config)
		return NewCatalog(cfg.PhoneModels)
	})

	// Register Repository - private dependency
	di.RegisterToken(c, pricingDI.Repository, func(sr di.ServiceRegistry) app.Repository {
		cfg := sr.Get("config").(*config.Config)

		repo, err := OpenRepository(context.Background(), cfg.Storage)
		if err != nil {
			panic("failed to open price repository: " + err.Error())
		}
		return repo
	})

	// Register RateProvider: cache -> http -> static config rates
	di.RegisterToken(c, pricingDI.RateProvider, func(sr di.ServiceRegistry) app.RateProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		reg := sr.Get("currencyRegistry").(*currency.Registry)

		provider, err := NewRateProvider(cfg.Currency, reg, log)
		if err != nil {
			panic("failed to create rate provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, pricingDI.Normalizer, func(sr di.ServiceRegistry) *app.Normalizer {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		reg := sr.Get("currencyRegistry").(*currency.Registry)

		n, err := app.NewNormalizer(pricingDI.GetCatalog(sr), reg, pricingDI.GetRateProvider(sr), cfg.Currency.Base, log)
		if err != nil {
			panic("failed to create normalizer: " + err.Error())
		}
		return n
	})

	// Register PricingService (public - exposed to other modules)
	di.RegisterToken(c, pricingDI.PricingService, func(sr di.ServiceRegistry) *app.PricingService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewPricingService(pricingDI.GetRepository(sr), log)
	})

	return nil
}

// Startup opens the store and registers its health check.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	repo := pricingDI.GetRepository(mono.Services())

	if srv := mono.Server(); srv != nil {
		srv.RegisterCheck("repository", func(ctx context.Context) (bool, string) {
			if err := repo.Ping(ctx); err != nil {
				return false, err.Error()
			}
			return true, "ok"
		})
	}

	log.Info(ctx, "pricing module started",
		"storage", mono.Config().Storage.Driver,
		"models", pricingDI.GetCatalog(mono.Services()).Len(),
		"base_currency", mono.Config().Currency.Base,
	)
	return nil
}

// NewCatalog expands the configured brand/model/storage lists.
func NewCatalog(specs []config.PhoneModelSpec) *domain.Catalog {
	var models []domain.PhoneModel
	for _, s := range specs {
		for _, storage := range s.Storage {
			models = append(models, domain.PhoneModel{Brand: s.Brand, Name: s.Model, Storage: storage})
		}
	}
	return domain.NewCatalog(models...)
}

// OpenRepository opens the store selected by storage.driver.
func OpenRepository(ctx context.Context, cfg config.StorageConfig) (app.Repository, error) {
	switch cfg.Driver {
	case "memory":
		return store.NewMemory(), nil
	case "postgres":
		pg, err := store.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		lite, err := store.OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return lite, nil
	}
}

// NewRateProvider builds the cached fallback chain. The HTTP source is
// only used when currency.provider_url is set.
func NewRateProvider(cfg config.CurrencyConfig, reg *currency.Registry, log logger.LoggerInterface) (app.RateProvider, error) {
	base, err := reg.Lookup(cfg.Base)
	if err != nil {
		return nil, err
	}

	static := rates.NewStaticProvider(base, reg, cfg.RatesDecimal())

	var remote app.RateProvider
	if cfg.ProviderURL != "" {
		client, err := httpclient.NewInstrumentedClient(
			httpclient.WithPlatformName("fx"),
			httpclient.WithRequestTimeout(10*time.Second),
		)
		if err != nil {
			return nil, err
		}
		remote = rates.NewHTTPProvider(client, ratelimit.New(cfg.RequestsPerMinute), cfg.ProviderURL, base, reg)
	}

	return rates.NewCachedProvider(rates.NewChain(log, remote, static), cfg.CacheTTL), nil
}
