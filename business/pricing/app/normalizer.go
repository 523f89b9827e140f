package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
)

// Drop is an observation rejected during normalization.
type Drop struct {
	Observation domain.Observation
	Code        apperror.Code
	Reason      string
}

// NormalizeResult holds the canonical records and the rejected observations.
type NormalizeResult struct {
	Records []domain.PriceRecord
	Drops   []Drop
}

// DropCounts tallies drops by error code.
func (r NormalizeResult) DropCounts() map[apperror.Code]int {
	out := make(map[apperror.Code]int)
	for _, d := range r.Drops {
		out[d.Code]++
	}
	return out
}

// Normalizer converts raw observations into canonical price records.
type Normalizer struct {
	catalog    *domain.Catalog
	currencies *currency.Registry
	rates      RateProvider
	base       *currency.Currency
	log        logger.LoggerInterface
	now        func() time.Time
}

// NewNormalizer creates a Normalizer converting into baseCode.
func NewNormalizer(catalog *domain.Catalog, currencies *currency.Registry, rates RateProvider, baseCode string, log logger.LoggerInterface) (*Normalizer, error) {
	base, err := currencies.Lookup(baseCode)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err), apperror.WithContext("base currency"))
	}
	return &Normalizer{
		catalog:    catalog,
		currencies: currencies,
		rates:      rates,
		base:       base,
		log:        log,
		now:        time.Now,
	}, nil
}

// Base returns the reporting currency.
func (n *Normalizer) Base() *currency.Currency {
	return n.base
}

// Catalog returns the tracked models.
func (n *Normalizer) Catalog() *domain.Catalog {
	return n.catalog
}

// Normalize converts each observation independently; failures become drops.
// If ctx is cancelled, the records normalized so far are returned.
func (n *Normalizer) Normalize(ctx context.Context, batchID string, table ConditionTable, observations []domain.Observation) NormalizeResult {
	var res NormalizeResult

	for _, obs := range observations {
		if ctx.Err() != nil {
			break
		}

		rec, err := n.normalize(ctx, batchID, table, obs)
		if err != nil {
			code := apperror.GetCode(err)
			res.Drops = append(res.Drops, Drop{Observation: obs, Code: code, Reason: err.Error()})
			n.log.Debug(ctx, "observation dropped",
				"platform", obs.Platform,
				"region", obs.Region,
				"code", code,
				"reason", err.Error(),
				"url", obs.SourceURL,
			)
			continue
		}
		res.Records = append(res.Records, rec)
	}

	return res
}

func (n *Normalizer) normalize(ctx context.Context, batchID string, table ConditionTable, obs domain.Observation) (domain.PriceRecord, error) {
	if !obs.Amount.IsPositive() {
		return domain.PriceRecord{}, apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContext(obs.Amount.String()))
	}

	model, err := n.resolveModel(obs)
	if err != nil {
		return domain.PriceRecord{}, err
	}

	condition, err := table.Resolve(obs.ConditionText)
	if err != nil {
		return domain.PriceRecord{}, err
	}

	cur, err := n.currencies.Lookup(obs.Currency)
	if err != nil {
		return domain.PriceRecord{}, apperror.New(apperror.CodeUnknownCurrency,
			apperror.WithCause(err), apperror.WithContext(obs.Currency))
	}

	observedAt := obs.ObservedAt
	if observedAt.IsZero() {
		observedAt = n.now()
	}
	observedAt = observedAt.UTC()

	rate := currency.Identity(n.base, observedAt)
	if !cur.Equals(n.base) {
		rate, err = n.rates.Rate(ctx, cur.Code(), observedAt)
		if err != nil {
			return domain.PriceRecord{}, apperror.Wrap(err, apperror.CodeUnknownCurrency, cur.Code())
		}
	}

	original, err := currency.NewMoney(cur, obs.Amount)
	if err != nil {
		return domain.PriceRecord{}, apperror.New(apperror.CodeInvalidPrice, apperror.WithCause(err))
	}
	converted, err := rate.ToBase(original)
	if err != nil {
		return domain.PriceRecord{}, apperror.New(apperror.CodeNormalizationError, apperror.WithCause(err))
	}
	price := converted.Amount().Round(2)

	rec := domain.PriceRecord{
		Platform:         obs.Platform,
		Region:           obs.Region,
		Model:            model,
		Condition:        condition,
		Price:            price,
		Currency:         n.base.Code(),
		OriginalAmount:   obs.Amount,
		OriginalCurrency: cur.Code(),
		Rate:             rate.Value,
		Available:        obs.Available,
		ObservedAt:       observedAt,
		SourceURL:        obs.SourceURL,
		BatchID:          batchID,
	}
	rec.ID = domain.RecordID(rec.Key(), rec.SourceURL, rec.ObservedAt, rec.Price, batchID)
	return rec, nil
}

func (n *Normalizer) resolveModel(obs domain.Observation) (domain.PhoneModel, error) {
	storage, ok := domain.CanonicalStorage(obs.StorageText)
	if !ok {
		storage, ok = domain.FindStorage(obs.Title)
	}
	if !ok {
		return domain.PhoneModel{}, apperror.New(apperror.CodeUnknownModel,
			apperror.WithContext("no storage in "+strings.TrimSpace(obs.StorageText+" "+obs.Title)))
	}

	model, ok := n.catalog.Lookup(obs.Brand, obs.Model, storage)
	if !ok {
		return domain.PhoneModel{}, apperror.New(apperror.CodeUnknownModel,
			apperror.WithContext(obs.Brand+" "+obs.Model+" "+storage))
	}
	return model, nil
}

// Dedup collapses records sharing a DedupKey to the lowest price, breaking
// ties by earliest ObservedAt then smallest SourceURL. keepAll skips the
// collapse. The output is sorted by key then (ObservedAt, ID).
func Dedup(records []domain.PriceRecord, keepAll bool) []domain.PriceRecord {
	var out []domain.PriceRecord

	if keepAll {
		out = append(out, records...)
	} else {
		best := make(map[domain.DedupKey]domain.PriceRecord, len(records))
		for _, r := range records {
			cur, ok := best[r.Key()]
			if !ok || preferred(r, cur) {
				best[r.Key()] = r
			}
		}
		out = make([]domain.PriceRecord, 0, len(best))
		for _, r := range best {
			out = append(out, r)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		ki, kj := out[i].Key(), out[j].Key()
		if ki != kj {
			return ki.Less(kj)
		}
		return domain.RecordLess(out[i], out[j])
	})
	return out
}

func preferred(a, b domain.PriceRecord) bool {
	if c := a.Price.Cmp(b.Price); c != 0 {
		return c < 0
	}
	if !a.ObservedAt.Equal(b.ObservedAt) {
		return a.ObservedAt.Before(b.ObservedAt)
	}
	return a.SourceURL < b.SourceURL
}
