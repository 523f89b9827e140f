package rates

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/app"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
)

// Chain tries each provider in order and returns the first rate found.
type Chain struct {
	providers []app.RateProvider
	log       logger.LoggerInterface
}

// NewChain builds a fallback chain. Nil providers are skipped.
func NewChain(log logger.LoggerInterface, providers ...app.RateProvider) *Chain {
	c := &Chain{log: log}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

func (c *Chain) Rate(ctx context.Context, code string, at time.Time) (currency.Rate, error) {
	var errs []error
	for i, p := range c.providers {
		r, err := p.Rate(ctx, code, at)
		if err == nil {
			return r, nil
		}
		if apperror.HasCode(err, apperror.CodeUnknownCurrency) {
			return currency.Rate{}, err
		}
		errs = append(errs, err)
		if i < len(c.providers)-1 {
			c.log.Warn(ctx, "rate provider failed, falling back", "currency", code, "error", err)
		}
	}
	return currency.Rate{}, apperror.New(apperror.CodeRateUnavailable,
		apperror.WithCause(errors.Join(errs...)), apperror.WithContext(code))
}

type cacheEntry struct {
	rate    currency.Rate
	fetched time.Time
}

// CachedProvider memoizes rates per currency for ttl.
type CachedProvider struct {
	next    app.RateProvider
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCachedProvider wraps next. A non-positive ttl caches forever.
func NewCachedProvider(next app.RateProvider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:    next,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *CachedProvider) Rate(ctx context.Context, code string, at time.Time) (currency.Rate, error) {
	key := strings.ToUpper(code)

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok && (c.ttl <= 0 || c.now().Sub(e.fetched) < c.ttl) {
		return e.rate, nil
	}

	r, err := c.next.Rate(ctx, code, at)
	if err != nil {
		return currency.Rate{}, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{rate: r, fetched: c.now()}
	c.mu.Unlock()
	return r, nil
}

// Invalidate drops every cached rate.
func (c *CachedProvider) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
