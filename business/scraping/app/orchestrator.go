package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	pricingApp "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/app"
	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apm"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/metrics"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/stream"
)

// persistTimeout bounds the save phase, which runs even after the cycle
// deadline so completed work is kept.
const persistTimeout = 30 * time.Second

// OrchestratorConfig holds cycle limits.
type OrchestratorConfig struct {
	Concurrency       int
	PlatformTimeout   time.Duration
	CycleTimeout      time.Duration
	BatchSize         int
	KeepAllDuplicates bool
}

// Orchestrator runs scrape cycles across all configured platforms.
type Orchestrator struct {
	platforms  []domain.PlatformSpec
	registry   *Registry
	deps       Deps
	normalizer *pricingApp.Normalizer
	pricing    *pricingApp.PricingService
	publisher  stream.Publisher
	recorder   *metrics.Recorder
	tracer     apm.Tracer
	cfg        OrchestratorConfig
	log        logger.LoggerInterface

	now     func() time.Time
	newID   func() string
	running atomic.Bool

	mu   sync.Mutex
	last *domain.CycleSummary
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	platforms []domain.PlatformSpec,
	registry *Registry,
	deps Deps,
	normalizer *pricingApp.Normalizer,
	pricing *pricingApp.PricingService,
	publisher stream.Publisher,
	recorder *metrics.Recorder,
	cfg OrchestratorConfig,
	log logger.LoggerInterface,
) *Orchestrator {
	if publisher == nil {
		publisher = stream.Noop
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Orchestrator{
		platforms:  platforms,
		registry:   registry,
		deps:       deps,
		normalizer: normalizer,
		pricing:    pricing,
		publisher:  publisher,
		recorder:   recorder,
		tracer:     apm.NewTracer("scraping"),
		cfg:        cfg,
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Platforms returns the configured platform specs.
func (o *Orchestrator) Platforms() []domain.PlatformSpec {
	return o.platforms
}

// Running reports whether a cycle is in progress.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// LastSummary returns the most recent cycle run by this process, or nil.
func (o *Orchestrator) LastSummary() *domain.CycleSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

type task struct {
	adapter Adapter
	table   pricingApp.ConditionTable
}

// RunScrapeCycle scrapes every selected (platform, region) with bounded
// concurrency, normalizes and dedups the observations and persists them
// in batches. Platform failures are reported in the summary; an error is
// returned only when the request selects nothing or a cycle is running.
func (o *Orchestrator) RunScrapeCycle(ctx context.Context, req domain.CycleRequest) (*domain.CycleSummary, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, apperror.New(apperror.CodeInvalidState,
			apperror.WithMessage("a scrape cycle is already running"))
	}
	defer o.running.Store(false)

	specs, err := o.selectPlatforms(req)
	if err != nil {
		return nil, err
	}
	models := o.normalizer.Catalog().Filter(req.Model)
	if len(models) == 0 {
		return nil, apperror.New(apperror.CodeUnknownModel, apperror.WithContext(req.Model))
	}

	summary := domain.NewCycleSummary(o.newID(), o.now().UTC(), req.DryRun)

	ctx, span := o.tracer.StartSpanFromContext(ctx, "scraping.cycle")
	defer span.End()
	span.SetAttributes(
		attribute.String("cycle.id", summary.ID),
		attribute.Int("cycle.platforms", len(specs)),
		attribute.Int("cycle.models", len(models)),
		attribute.Bool("cycle.dry_run", req.DryRun),
	)

	cycleCtx, cancel := ctx, context.CancelFunc(func() {})
	if o.cfg.CycleTimeout > 0 {
		cycleCtx, cancel = context.WithTimeout(ctx, o.cfg.CycleTimeout)
	}
	defer cancel()

	o.advance(ctx, summary, domain.StateDispatching)
	o.log.Info(ctx, "scrape cycle started",
		"cycle_id", summary.ID,
		"platforms", len(specs),
		"models", len(models),
		"dry_run", req.DryRun,
	)

	col := &collector{}
	tasks := o.dispatch(ctx, specs, req, col)

	o.advance(ctx, summary, domain.StateCollecting)
	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for _, t := range tasks {
		g.Go(func() error {
			col.add(o.runTask(cycleCtx, summary.ID, t, models))
			return nil
		})
	}
	_ = g.Wait()

	summary.Aggregate(col.results())
	o.advance(ctx, summary, domain.StateAggregated)

	records := summary.Records()
	if !req.DryRun && len(records) > 0 {
		persistCtx, cancelPersist := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		res, err := o.pricing.Persist(persistCtx, records, o.cfg.BatchSize)
		cancelPersist()

		summary.Saved = res.Saved
		summary.FailedBatches = res.FailedBatches
		if err != nil {
			span.NoticeError(err)
			o.log.Error(ctx, "persisting cycle records failed",
				"cycle_id", summary.ID,
				"failed_batches", res.FailedBatches,
				"failed_records", res.FailedRecords,
				"error", err.Error(),
			)
		}
	}

	o.advance(ctx, summary, summary.Outcome())
	summary.FinishedAt = o.now().UTC()
	span.SetAttributes(
		attribute.String("cycle.state", string(summary.State)),
		attribute.Int("cycle.saved", summary.Saved),
		attribute.Int("cycle.failed", summary.Failed),
	)

	o.finish(ctx, summary)
	return summary, nil
}

func (o *Orchestrator) selectPlatforms(req domain.CycleRequest) ([]domain.PlatformSpec, error) {
	var out []domain.PlatformSpec
	for _, p := range o.platforms {
		if p.Matches(req.Region, req.Platform) {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		return out, nil
	}
	if req.Platform != "" {
		return nil, apperror.New(apperror.CodePlatformNotRegistered,
			apperror.WithContext(req.Platform))
	}
	return nil, apperror.New(apperror.CodeInvalidInput,
		apperror.WithMessage("no platforms configured for region "+req.Region))
}

// dispatch builds one adapter per platform. Platforms that cannot be built
// are excluded from the run and reported as Configuration failures.
func (o *Orchestrator) dispatch(ctx context.Context, specs []domain.PlatformSpec, req domain.CycleRequest, col *collector) []task {
	deps := o.deps
	if !req.At.IsZero() {
		at := req.At
		deps.Now = func() time.Time { return at }
	}

	tasks := make([]task, 0, len(specs))
	for _, spec := range specs {
		var (
			a   Adapter
			err error
		)
		if req.Sample {
			a, err = o.registry.BuildAs(domain.TypeSample, spec, deps)
		} else {
			a, err = o.registry.Build(spec, deps)
		}

		var table pricingApp.ConditionTable
		if err == nil {
			table, err = pricingApp.NewConditionTable(spec.Conditions, spec.DefaultCondition)
		}
		if err != nil {
			o.log.Error(ctx, "platform excluded from cycle",
				"platform", spec.Name,
				"region", spec.Region,
				"error", err.Error(),
			)
			col.add(domain.ScrapeResult{
				Platform: spec.Name,
				Region:   spec.Region,
				Errors:   []domain.ScrapeError{ToScrapeError(spec, err)},
			})
			continue
		}
		tasks = append(tasks, task{adapter: a, table: table})
	}
	return tasks
}

func (o *Orchestrator) runTask(ctx context.Context, batchID string, t task, models []pricingDomain.PhoneModel) domain.ScrapeResult {
	spec := t.adapter.Platform()
	start := time.Now()
	res := domain.ScrapeResult{Platform: spec.Name, Region: spec.Region}

	ctx, span := o.tracer.StartSpanFromContext(ctx, "scraping.platform")
	defer span.End()
	span.SetAttributes(
		attribute.String("platform", spec.Name),
		attribute.String("region", spec.Region),
		attribute.String("scraper_type", spec.ScraperType),
	)

	taskCtx, cancel := ctx, context.CancelFunc(func() {})
	if o.cfg.PlatformTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, o.cfg.PlatformTimeout)
	}
	defer cancel()

	ar := t.adapter.Scrape(taskCtx, models)
	res.Attempted = ar.Attempted
	res.Errors = ar.Errors
	if taskCtx.Err() != nil {
		return o.abandon(ctx, taskCtx, res, span)
	}

	norm := o.normalizer.Normalize(taskCtx, batchID, t.table, ar.Observations)
	if taskCtx.Err() != nil {
		return o.abandon(ctx, taskCtx, res, span)
	}

	res.Succeeded = ar.Succeeded
	res.Records = pricingApp.Dedup(norm.Records, o.cfg.KeepAllDuplicates)
	res.Dropped = len(norm.Drops)

	counts := norm.DropCounts()
	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)
	for _, code := range codes {
		n := counts[apperror.Code(code)]
		o.recorder.Dropped(ctx, spec.Name, code, n)
		res.Errors = append(res.Errors, domain.ScrapeError{
			Platform: spec.Name,
			Region:   spec.Region,
			Kind:     domain.KindNormalization,
			Message:  fmt.Sprintf("%d observations dropped: %s", n, code),
		})
	}

	o.recorder.Records(ctx, spec.Name, spec.Region, len(res.Records))
	o.recorder.Duration(ctx, spec.Name, spec.Region, time.Since(start))
	span.SetAttributes(
		attribute.Int("records", len(res.Records)),
		attribute.Int("dropped", res.Dropped),
		attribute.Int("errors", len(res.Errors)),
	)
	return res
}

// abandon discards a task's partial output after its context ended and
// records a single platform-level Timeout or Cancelled entry.
func (o *Orchestrator) abandon(parent, taskCtx context.Context, res domain.ScrapeResult, span apm.Span) domain.ScrapeResult {
	kept := res.Errors[:0]
	for _, e := range res.Errors {
		if e.Kind != domain.KindTimeout && e.Kind != domain.KindCancelled {
			kept = append(kept, e)
		}
	}

	entry := domain.ScrapeError{Platform: res.Platform, Region: res.Region}
	switch {
	case errors.Is(parent.Err(), context.DeadlineExceeded):
		entry.Kind, entry.Message = domain.KindTimeout, "cycle timeout exceeded"
	case parent.Err() != nil:
		entry.Kind, entry.Message = domain.KindCancelled, "cycle cancelled"
	default:
		entry.Kind, entry.Message = domain.KindTimeout, "platform timeout exceeded after "+o.cfg.PlatformTimeout.String()
	}

	res.Errors = append(kept, entry)
	res.Records = nil
	res.Succeeded = 0
	span.NoticeError(taskCtx.Err())
	return res
}

func (o *Orchestrator) advance(ctx context.Context, s *domain.CycleSummary, to domain.CycleState) {
	if err := s.Advance(to); err != nil {
		o.log.Error(ctx, "cycle state error", "cycle_id", s.ID, "error", err.Error())
	}
}

// finish persists the session, publishes events and logs the summary.
// Dry runs write nothing. A cancelled cycle is still recorded.
func (o *Orchestrator) finish(ctx context.Context, s *domain.CycleSummary) {
	ctx = context.WithoutCancel(ctx)

	o.mu.Lock()
	o.last = s
	o.mu.Unlock()

	session := s.Session()
	if !s.DryRun {
		if err := o.pricing.SaveCycle(ctx, session); err != nil {
			o.log.Error(ctx, "saving scrape session failed", "cycle_id", s.ID, "error", err.Error())
		}
	}

	for _, r := range s.Results {
		args := []any{
			"platform", r.Platform,
			"region", r.Region,
			"attempted", r.Attempted,
			"succeeded", r.Succeeded,
			"records", len(r.Records),
			"dropped", r.Dropped,
			"errors", len(r.Errors),
		}
		if !r.Failed() {
			o.log.Info(ctx, "platform scraped", args...)
			continue
		}
		o.log.Warn(ctx, "platform failed", args...)
		if err := o.publisher.Publish(ctx, stream.EventPlatformFailed, r); err != nil {
			o.log.Warn(ctx, "publishing platform failure failed", "error", err.Error())
		}
	}

	if err := o.publisher.Publish(ctx, stream.EventCycleCompleted, session); err != nil {
		o.log.Warn(ctx, "publishing cycle event failed", "cycle_id", s.ID, "error", err.Error())
	}

	o.log.Info(ctx, "scrape cycle finished",
		"cycle_id", s.ID,
		"state", s.State,
		"attempted", s.Attempted,
		"succeeded", s.Succeeded,
		"failed", s.Failed,
		"saved", s.Saved,
		"dropped", s.Dropped,
		"duration", s.FinishedAt.Sub(s.StartedAt),
	)
}

// collector gathers task results from concurrent workers.
type collector struct {
	mu  sync.Mutex
	out []domain.ScrapeResult
}

func (c *collector) add(r domain.ScrapeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, r)
}

func (c *collector) results() []domain.ScrapeResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.ScrapeResult(nil), c.out...)
}
