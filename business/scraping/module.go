// Package scraping implements the scraping bounded context: adapters,
// pacing and retries, and the scrape cycle orchestrator.
package scraping

import (
	"context"
	"time"

	pricingDI "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/di"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/app"
	scrapingDI "github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/di"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/infra/browser"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/infra/htmlscraper"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/infra/jsonapi"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/infra/rest"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/infra/sample"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/config"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/di"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/httpclient"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/metrics"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/monolith"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/stream"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/wsconn"
)

// Module implements the scraping bounded context.
type Module struct{}

// RegisterServices registers all scraping services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Fetcher - private dependency
	di.RegisterToken(c, scrapingDI.Fetcher, func(sr di.ServiceRegistry) *app.Fetcher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		recorder := sr.Get("recorder").(*metrics.Recorder)

		f, err := NewFetcher(cfg.Scraping, recorder, log)
		if err != nil {
			panic("failed to create fetcher: " + err.Error())
		}
		return f
	})

	di.RegisterToken(c, scrapingDI.Registry, func(sr di.ServiceRegistry) *app.Registry {
		cfg := sr.Get("config").(*config.Config)
		return NewRegistry(cfg.Scraping.FallbackToSample)
	})

	// Register Orchestrator (public - exposed to other modules)
	di.RegisterToken(c, scrapingDI.Orchestrator, func(sr di.ServiceRegistry) *app.Orchestrator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		deps := app.Deps{
			Fetcher:    scrapingDI.GetFetcher(sr),
			Currencies: sr.Get("currencyRegistry").(*currency.Registry),
			Catalog:    pricingDI.GetCatalog(sr),
			Log:        log,
		}

		return app.NewOrchestrator(
			app.SpecsFromConfig(cfg),
			scrapingDI.GetRegistry(sr),
			deps,
			pricingDI.GetNormalizer(sr),
			pricingDI.GetPricingService(sr),
			sr.Get("publisher").(stream.Publisher),
			sr.Get("recorder").(*metrics.Recorder),
			app.OrchestratorConfig{
				Concurrency:       cfg.Scraping.Concurrency,
				PlatformTimeout:   cfg.Scraping.PlatformTimeout,
				CycleTimeout:      cfg.Scraping.CycleTimeout,
				BatchSize:         cfg.Scraping.BatchSize,
				KeepAllDuplicates: cfg.Scraping.KeepAllDuplicates,
			},
			log,
		)
	})

	return nil
}

// Startup mounts the cycle API when the HTTP API is enabled.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	orch := scrapingDI.GetOrchestrator(mono.Services())

	if srv := mono.Server(); srv != nil && cfg.Server.EnableAPI {
		h := rest.NewHandler(context.WithoutCancel(ctx), orch, pricingDI.GetPricingService(mono.Services()), log)
		h.Mount(srv.Router())

		// The hub is registered whenever the API is enabled.
		hub := mono.Services().Get("hub").(*wsconn.Hub)
		srv.Router().Get("/api/v1/ws", hub.ServeHTTP)
	}

	log.Info(ctx, "scraping module started",
		"platforms", len(orch.Platforms()),
		"scraper_types", scrapingDI.GetRegistry(mono.Services()).Types(),
		"concurrency", cfg.Scraping.Concurrency,
		"proxies", len(cfg.Scraping.Proxies),
	)
	return nil
}

// NewFetcher builds the shared HTTP client, proxy pool and Fetcher.
func NewFetcher(cfg config.ScrapingConfig, recorder *metrics.Recorder, log logger.LoggerInterface) (*app.Fetcher, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithPlatformName("scraper"),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithUserAgent(cfg.UserAgent),
	)
	if err != nil {
		return nil, err
	}

	var proxies *app.ProxyPool
	if cfg.UseProxy {
		var bad []string
		proxies, bad = app.NewProxyPool(cfg.Proxies)
		for _, p := range bad {
			log.Warn(context.Background(), "ignoring invalid proxy", "proxy", p)
		}
	}

	return app.NewFetcher(client, proxies, recorder, app.FetcherConfig{
		MaxRetries:      cfg.MaxRetries,
		BaseBackoff:     cfg.BaseBackoff,
		MaxBackoff:      cfg.MaxBackoff,
		DefaultInterval: cfg.Delay,
	}, log), nil
}

// NewRegistry registers the built-in scraper types.
func NewRegistry(fallbackToSample bool) *app.Registry {
	r := app.NewRegistry(fallbackToSample)
	r.RegisterType(domain.TypeHTML, htmlscraper.New)
	r.RegisterType(domain.TypeAPI, jsonapi.New)
	r.RegisterType(domain.TypeBrowser, browser.New)
	r.RegisterType(domain.TypeSample, sample.New)
	return r
}
