package main

import (
	"context"
	"sync/atomic"
	"time"

	analysisApp "github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/app"
	analysisDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	scrapingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
	"github.com/prem-pandian/smartphone-price-tracker-v2/pkg/ui"
)

type cycleRunner interface {
	RunScrapeCycle(ctx context.Context, req scrapingDomain.CycleRequest) (*scrapingDomain.CycleSummary, error)
}

type analyzer interface {
	RunAnalysis(ctx context.Context, days int) (*analysisDomain.Bundle, error)
	Report(ctx context.Context, bundle *analysisDomain.Bundle, reporters ...analysisApp.Reporter) error
}

type statsSource interface {
	Stats(ctx context.Context) (pricingDomain.Stats, error)
}

// scheduler runs a scrape and an analysis every interval until ctx ends.
type scheduler struct {
	cycles    cycleRunner
	analysis  analyzer
	stats     statsSource
	reporters []analysisApp.Reporter
	req       scrapingDomain.CycleRequest
	days      int
	interval  time.Duration
	log       logger.LoggerInterface

	// notify receives dashboard messages; nil outside the TUI.
	notify func(msg any)

	paused  atomic.Bool
	trigger chan struct{}
}

func newScheduler(
	cycles cycleRunner,
	analysis analyzer,
	stats statsSource,
	req scrapingDomain.CycleRequest,
	days int,
	interval time.Duration,
	log logger.LoggerInterface,
	reporters ...analysisApp.Reporter,
) *scheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &scheduler{
		cycles:    cycles,
		analysis:  analysis,
		stats:     stats,
		reporters: reporters,
		req:       req,
		days:      days,
		interval:  interval,
		log:       log,
		trigger:   make(chan struct{}, 1),
	}
}

// Trigger asks for an immediate cycle. Extra requests while one is queued are dropped.
func (s *scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// SetPaused stops or resumes ticks. Manual triggers still run.
func (s *scheduler) SetPaused(paused bool) {
	s.paused.Store(paused)
	s.log.Info(context.Background(), "scheduler paused", "paused", paused)
}

// Run fires a cycle at once, then on every tick.
func (s *scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		s.send(ui.NextCycleMsg{At: time.Now().Add(s.interval)})
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if s.paused.Load() {
				s.log.Debug(ctx, "tick skipped while paused")
				continue
			}
			s.runOnce(ctx)
		case <-s.trigger:
			s.runOnce(ctx)
			ticker.Reset(s.interval)
		}
	}
}

// runOnce scrapes, analyzes and reports. Failures are logged and the
// scheduler keeps going.
func (s *scheduler) runOnce(ctx context.Context) {
	s.send(ui.CycleStartedMsg{At: time.Now()})

	summary, err := s.cycles.RunScrapeCycle(ctx, s.req)
	if err != nil {
		s.log.Warn(ctx, "scheduled cycle not run", "error", err.Error())
		s.send(ui.ErrorMsg{Error: err})
		return
	}
	if ctx.Err() != nil {
		return
	}
	s.log.Info(ctx, "scheduled cycle finished",
		"cycle_id", summary.ID,
		"state", string(summary.State),
		"saved", summary.Saved,
	)

	bundle, err := s.analysis.RunAnalysis(ctx, s.days)
	if err != nil {
		s.log.Error(ctx, "analysis failed", "error", err.Error())
		s.send(ui.ErrorMsg{Error: err})
		return
	}
	if err := s.analysis.Report(ctx, bundle, s.reporters...); err != nil {
		s.send(ui.ErrorMsg{Error: err})
	}

	if stats, err := s.stats.Stats(ctx); err == nil {
		s.send(ui.StatsMsg{Stats: stats})
	}
}

func (s *scheduler) send(msg any) {
	if s.notify != nil {
		s.notify(msg)
	}
}
