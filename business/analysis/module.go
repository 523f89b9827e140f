// Package analysis implements the analysis bounded context: trends,
// volatility, arbitrage, best deals and the market summary.
package analysis

import (
	"context"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/app"
	analysisDI "github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/di"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/infra/rest"
	pricingDI "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/di"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/config"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/di"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/metrics"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/monolith"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/stream"
)

// Module implements the analysis bounded context.
type Module struct{}

// RegisterServices registers all analysis services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Engine - private dependency
	di.RegisterToken(c, analysisDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		return app.NewEngine(app.ThresholdsFromConfig(cfg.Analysis))
	})

	// Register Service (public - exposed to other modules)
	di.RegisterToken(c, analysisDI.Service, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewService(
			pricingDI.GetPricingService(sr),
			analysisDI.GetEngine(sr),
			app.ServiceConfig{
				DefaultDays: cfg.Analysis.DefaultDays,
				Mode:        domain.ParseMode(cfg.Analysis.WindowMode),
			},
			sr.Get("publisher").(stream.Publisher),
			sr.Get("recorder").(*metrics.Recorder),
			log,
		)
	})

	return nil
}

// Startup mounts the insights API when the HTTP API is enabled.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	svc := analysisDI.GetService(mono.Services())

	if srv := mono.Server(); srv != nil && cfg.Server.EnableAPI {
		rest.NewHandler(svc, log).Mount(srv.Router())
	}

	th := app.ThresholdsFromConfig(cfg.Analysis)
	log.Info(ctx, "analysis module started",
		"mode", string(domain.ParseMode(cfg.Analysis.WindowMode)),
		"default_days", cfg.Analysis.DefaultDays,
		"price_change_pct", th.PriceChangePct.String(),
		"arbitrage_abs", th.ArbitrageAbs.String(),
		"arbitrage_pct", th.ArbitragePct.String(),
	)
	return nil
}
