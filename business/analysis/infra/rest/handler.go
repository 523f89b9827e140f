// Package rest exposes analysis runs over HTTP.
package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/health"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
)

// maxDays bounds the window a caller may ask for.
const maxDays = 3650

// Analyzer runs an analysis over the last days days.
type Analyzer interface {
	RunAnalysis(ctx context.Context, days int) (*domain.Bundle, error)
}

// Handler serves /api/v1/insights.
type Handler struct {
	analyzer Analyzer
	log      logger.LoggerInterface
}

func NewHandler(analyzer Analyzer, log logger.LoggerInterface) *Handler {
	return &Handler{analyzer: analyzer, log: log}
}

// Mount registers the routes on r with their full paths.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/v1/insights", h.insights)
}

func (h *Handler) insights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxDays {
			health.WriteError(w, apperror.New(apperror.CodeInvalidInput,
				apperror.WithCause(err),
				apperror.WithContext("days must be a whole number between 1 and "+strconv.Itoa(maxDays))))
			return
		}
		days = n
	}

	bundle, err := h.analyzer.RunAnalysis(ctx, days)
	if err != nil {
		h.log.Error(ctx, "insights: analysis failed", "days", days, "error", err)
		health.WriteError(w, err)
		return
	}
	health.WriteJSON(w, http.StatusOK, bundle)
}
