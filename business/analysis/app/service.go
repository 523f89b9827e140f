package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apm"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/metrics"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/stream"
)

// ServiceConfig holds run defaults.
type ServiceConfig struct {
	DefaultDays int
	Mode        domain.Mode
}

// Service loads history, runs the engine and announces the result.
type Service struct {
	history   History
	engine    *Engine
	cfg       ServiceConfig
	publisher stream.Publisher
	recorder  *metrics.Recorder
	tracer    apm.Tracer
	log       logger.LoggerInterface
	now       func() time.Time
}

// NewService creates a new Service. publisher and recorder may be nil.
func NewService(
	history History,
	engine *Engine,
	cfg ServiceConfig,
	publisher stream.Publisher,
	recorder *metrics.Recorder,
	log logger.LoggerInterface,
) *Service {
	if publisher == nil {
		publisher = stream.Noop
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 30
	}
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeLatest
	}
	return &Service{
		history:   history,
		engine:    engine,
		cfg:       cfg,
		publisher: publisher,
		recorder:  recorder,
		tracer:    apm.NewTracer("analysis"),
		log:       log,
		now:       time.Now,
	}
}

// RunAnalysis analyzes the last days days of history. days <= 0 uses the
// configured default.
func (s *Service) RunAnalysis(ctx context.Context, days int) (*domain.Bundle, error) {
	if days <= 0 {
		days = s.cfg.DefaultDays
	}

	ctx, span := s.tracer.StartSpanFromContext(ctx, "analysis.run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("analysis.days", days),
		attribute.String("analysis.mode", string(s.cfg.Mode)),
	)

	records, err := s.history.History(ctx, days)
	if err != nil {
		span.NoticeError(err)
		return nil, apperror.Wrap(err, apperror.CodeRepositoryError, "load price history")
	}

	bundle := s.engine.Analyze(records, domain.Options{
		Now:        s.now().UTC().Truncate(time.Second),
		WindowDays: days,
		Mode:       s.cfg.Mode,
	})

	s.recorder.Insights(ctx, "trend", len(bundle.TrendDeltas))
	s.recorder.Insights(ctx, "volatility", len(bundle.VolatilityReports))
	s.recorder.Insights(ctx, "arbitrage", len(bundle.ArbitrageOpportunities))
	s.recorder.Insights(ctx, "best_deal", len(bundle.BestDeals))

	span.SetAttributes(
		attribute.Int("analysis.records", len(records)),
		attribute.Int("analysis.insights", bundle.Count()),
	)

	if err := s.publisher.Publish(ctx, stream.EventInsightsGenerated, bundle); err != nil {
		s.log.Warn(ctx, "failed to publish insights", "error", err.Error())
	}

	s.log.Info(ctx, "analysis completed",
		"days", days,
		"records", len(records),
		"trends", len(bundle.TrendDeltas),
		"arbitrage", len(bundle.ArbitrageOpportunities),
		"best_deals", len(bundle.BestDeals),
	)
	return bundle, nil
}

// Report hands bundle to every reporter. A failing reporter is logged and
// the rest still run; the first error is returned.
func (s *Service) Report(ctx context.Context, bundle *domain.Bundle, reporters ...Reporter) error {
	var first error
	for _, r := range reporters {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, bundle); err != nil {
			s.log.Error(ctx, "reporter failed", "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
