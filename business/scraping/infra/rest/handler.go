// Package rest exposes scrape cycles over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/health"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
)

const maxBody = 16 * 1024

// Cycles is the orchestrator surface the handlers need.
type Cycles interface {
	RunScrapeCycle(ctx context.Context, req domain.CycleRequest) (*domain.CycleSummary, error)
	Running() bool
	LastSummary() *domain.CycleSummary
	Platforms() []domain.PlatformSpec
}

// History is the repository surface the handlers need.
type History interface {
	Stats(ctx context.Context) (pricingDomain.Stats, error)
	LastCycle(ctx context.Context) (*pricingDomain.Session, error)
}

// Handler serves /api/v1 status and cycle routes.
type Handler struct {
	cycles  Cycles
	history History
	log     logger.LoggerInterface
	// base outlives the request so triggered cycles keep running.
	base context.Context
}

func NewHandler(base context.Context, cycles Cycles, history History, log logger.LoggerInterface) *Handler {
	return &Handler{cycles: cycles, history: history, log: log, base: base}
}

// Mount registers the routes on r with their full paths.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/v1/status", h.status)
	r.Post("/api/v1/cycles", h.trigger)
	r.Get("/api/v1/cycles/last", h.last)
}

type platformView struct {
	Name        string  `json:"name"`
	Region      string  `json:"region"`
	ScraperType string  `json:"scraper_type"`
	RateLimit   float64 `json:"rate_limit_seconds"`
}

type statusResponse struct {
	Stats     pricingDomain.Stats    `json:"stats"`
	Running   bool                   `json:"running"`
	LastCycle *pricingDomain.Session `json:"last_cycle,omitempty"`
	Platforms []platformView         `json:"platforms"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.history.Stats(ctx)
	if err != nil {
		h.log.Error(ctx, "status: stats failed", "error", err)
		health.WriteError(w, err)
		return
	}
	last, err := h.lastSession(ctx)
	if err != nil {
		health.WriteError(w, err)
		return
	}

	specs := h.cycles.Platforms()
	platforms := make([]platformView, 0, len(specs))
	for _, p := range specs {
		platforms = append(platforms, platformView{
			Name:        p.Name,
			Region:      p.Region,
			ScraperType: p.ScraperType,
			RateLimit:   p.RateLimit.Seconds(),
		})
	}

	health.WriteJSON(w, http.StatusOK, statusResponse{
		Stats:     stats,
		Running:   h.cycles.Running(),
		LastCycle: last,
		Platforms: platforms,
	})
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request) {
	var req domain.CycleRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		health.WriteError(w, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err), apperror.WithContext("request body")))
		return
	}

	if h.cycles.Running() {
		health.WriteError(w, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("a scrape cycle is already running"),
			apperror.WithStatusCode(http.StatusConflict)))
		return
	}

	go func() {
		ctx := h.base
		summary, err := h.cycles.RunScrapeCycle(ctx, req)
		if err != nil {
			h.log.Warn(ctx, "triggered cycle not run", "error", err.Error())
			return
		}
		h.log.Info(ctx, "triggered cycle finished", "cycle_id", summary.ID, "state", string(summary.State))
	}()

	health.WriteJSON(w, http.StatusAccepted, map[string]any{
		"status":   "accepted",
		"region":   req.Region,
		"platform": req.Platform,
		"model":    req.Model,
		"dry_run":  req.DryRun,
	})
}

func (h *Handler) last(w http.ResponseWriter, r *http.Request) {
	last, err := h.lastSession(r.Context())
	if err != nil {
		health.WriteError(w, err)
		return
	}
	if last == nil {
		health.WriteError(w, apperror.New(apperror.CodeNotFound, apperror.WithContext("no scrape cycle recorded")))
		return
	}
	health.WriteJSON(w, http.StatusOK, last)
}

// lastSession prefers the stored session. Dry runs are never stored, so a
// more recent in-memory summary wins.
func (h *Handler) lastSession(ctx context.Context) (*pricingDomain.Session, error) {
	stored, err := h.history.LastCycle(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeRepositoryError, "last cycle")
	}
	mem := h.cycles.LastSummary()
	if mem == nil {
		return stored, nil
	}
	if stored == nil || mem.StartedAt.After(stored.StartedAt) {
		s := mem.Session()
		return &s, nil
	}
	return stored, nil
}
