// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"
	"time"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
)

// RateProvider resolves the rate converting code into the base currency.
type RateProvider interface {
	// Rate returns base/code valid at the given instant.
	Rate(ctx context.Context, code string, at time.Time) (currency.Rate, error)
}

// Repository persists price records and scrape sessions.
type Repository interface {
	// Save stores records atomically and ignores IDs already present.
	// It returns the number of new rows.
	Save(ctx context.Context, records []domain.PriceRecord) (int, error)

	// Query returns matching records ordered by (ObservedAt, ID).
	Query(ctx context.Context, filter domain.Filter) ([]domain.PriceRecord, error)

	SaveCycle(ctx context.Context, session domain.Session) error

	// LastCycle returns the most recently started session, or nil.
	LastCycle(ctx context.Context) (*domain.Session, error)

	// Prune deletes records observed before the cutoff.
	Prune(ctx context.Context, before time.Time) (int, error)

	Stats(ctx context.Context, since time.Time) (domain.Stats, error)
	Ping(ctx context.Context) error
	Close() error
}
