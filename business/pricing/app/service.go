package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
)

// PersistResult reports a batched save.
type PersistResult struct {
	Saved         int
	FailedBatches int
	FailedRecords int
}

// PricingService owns the price history: batched writes, queries and retention.
type PricingService struct {
	repo Repository
	log  logger.LoggerInterface
	now  func() time.Time
}

// NewPricingService creates a new PricingService over repo.
func NewPricingService(repo Repository, log logger.LoggerInterface) *PricingService {
	return &PricingService{repo: repo, log: log, now: time.Now}
}

// Repository exposes the underlying store.
func (s *PricingService) Repository() Repository {
	return s.repo
}

// Persist saves records in batches of batchSize. A failing batch is logged
// and counted; later batches still run. The returned error joins every
// batch failure.
func (s *PricingService) Persist(ctx context.Context, records []domain.PriceRecord, batchSize int) (PersistResult, error) {
	var (
		res  PersistResult
		errs []error
	)
	if batchSize <= 0 {
		batchSize = len(records)
	}

	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		batch := records[start:end]

		n, err := s.repo.Save(ctx, batch)
		if err != nil {
			res.FailedBatches++
			res.FailedRecords += len(batch)
			errs = append(errs, fmt.Errorf("batch %d-%d: %w", start, end, err))
			s.log.Error(ctx, "failed to save price batch",
				"from", start,
				"to", end,
				"error", err,
			)
			continue
		}
		res.Saved += n
	}

	if len(errs) > 0 {
		return res, apperror.New(apperror.CodeRepositoryError, apperror.WithCause(errors.Join(errs...)))
	}
	return res, nil
}

// History returns records observed in the last days days.
func (s *PricingService) History(ctx context.Context, days int) ([]domain.PriceRecord, error) {
	filter := domain.Filter{}
	if days > 0 {
		filter.Since = s.now().Add(-time.Duration(days) * 24 * time.Hour)
	}
	return s.repo.Query(ctx, filter)
}

// Stats summarizes the store; recent counts the last 7 days.
func (s *PricingService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.repo.Stats(ctx, s.now().Add(-7*24*time.Hour))
}

// Prune deletes records older than retentionDays.
func (s *PricingService) Prune(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("retention_days must be positive"))
	}
	cutoff := s.now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	n, err := s.repo.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "pruned price records", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
	return n, nil
}

func (s *PricingService) SaveCycle(ctx context.Context, session domain.Session) error {
	return s.repo.SaveCycle(ctx, session)
}

func (s *PricingService) LastCycle(ctx context.Context) (*domain.Session, error) {
	return s.repo.LastCycle(ctx)
}
