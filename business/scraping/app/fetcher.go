package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/circuitbreaker"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/httpclient"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/metrics"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/ratelimit"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/retry"
)

// Request outcomes recorded per attempt. A rejected fetch records
// outcomeCircuitOpen once and makes no attempt.
const (
	outcomeOK          = "ok"
	outcomeError       = "error"
	outcomeRateLimited = "rate_limited"
	outcomeCircuitOpen = "circuit_open"
)

// FetcherConfig tunes pacing and retries.
type FetcherConfig struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// DefaultInterval paces platforms that declare no rate limit.
	DefaultInterval time.Duration
	Breaker         func(name string) circuitbreaker.Config
}

// FetchRequest is one GET against a platform.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Query   map[string]string
}

// Fetcher performs paced, retried and circuit-broken requests. Platforms
// are keyed by name, so the same marketplace in two regions shares one
// gate and one breaker.
type Fetcher struct {
	client   httpclient.Client
	gates    *ratelimit.GateSet
	proxies  *ProxyPool
	recorder *metrics.Recorder
	log      logger.LoggerInterface
	cfg      FetcherConfig

	mu       sync.Mutex
	breakers map[string]*circuitbreaker.CircuitBreaker[[]byte]
	quotas   map[string]*ratelimit.Limiter
}

// NewFetcher creates a Fetcher. proxies and recorder may be nil.
func NewFetcher(client httpclient.Client, proxies *ProxyPool, recorder *metrics.Recorder, cfg FetcherConfig, log logger.LoggerInterface) *Fetcher {
	if cfg.Breaker == nil {
		cfg.Breaker = circuitbreaker.DefaultConfig
	}
	return &Fetcher{
		client:   client,
		gates:    ratelimit.NewGateSet(),
		proxies:  proxies,
		recorder: recorder,
		log:      log,
		cfg:      cfg,
		breakers: make(map[string]*circuitbreaker.CircuitBreaker[[]byte]),
		quotas:   make(map[string]*ratelimit.Limiter),
	}
}

// Gates exposes the per-platform gates.
func (f *Fetcher) Gates() *ratelimit.GateSet {
	return f.gates
}

// Quota returns the platform's requests-per-minute limiter, creating it
// on first use. Later calls for the same platform ignore requestsPerMinute.
func (f *Fetcher) Quota(name string, requestsPerMinute int) *ratelimit.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if l, ok := f.quotas[name]; ok {
		return l
	}
	l := ratelimit.New(requestsPerMinute)
	f.quotas[name] = l
	return l
}

// Get fetches req through the platform's gate, breaker and retry policy.
// Errors are *FetchError wrapping a classified app error.
func (f *Fetcher) Get(ctx context.Context, spec domain.PlatformSpec, req FetchRequest) ([]byte, error) {
	return f.Do(ctx, spec, req.URL, func(ctx context.Context) ([]byte, error) {
		r := f.client.NewRequestWithOptions(
			httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler),
			httpclient.WithLabels(
				httpclient.NewLabel("platform", spec.Name),
				httpclient.NewLabel("region", spec.Region),
			),
		)
		for k, v := range req.Headers {
			r.SetHeader(k, v)
		}
		for k, v := range req.Query {
			r.SetQueryParam(k, v)
		}
		resp, err := r.Get(ctx, req.URL)
		if err != nil {
			return nil, err
		}
		return resp.Body(), nil
	})
}

// Do runs fn with the same pacing, breaker and retry handling as Get.
// Adapters that do not speak plain HTTP, such as the headless browser,
// use it directly.
func (f *Fetcher) Do(ctx context.Context, spec domain.PlatformSpec, target string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	interval := spec.RateLimit
	if interval <= 0 {
		interval = f.cfg.DefaultInterval
	}
	gate := f.gates.Get(spec.Name, interval)
	breaker := f.breaker(spec.Name)

	policy := retry.Policy{
		MaxRetries: f.cfg.MaxRetries,
		BaseDelay:  f.cfg.BaseBackoff,
		MaxDelay:   f.cfg.MaxBackoff,
		OnRetry: func(ctx context.Context, next int, delay time.Duration, err error) {
			f.log.Debug(ctx, "retrying request",
				"platform", spec.Name,
				"region", spec.Region,
				"url", target,
				"attempt", next+1,
				"delay", delay,
				"error", err.Error(),
			)
		},
	}

	// The breaker sees one outcome per fetch, after retries are spent, so
	// an open circuit never cuts a retry sequence short.
	var attempts int
	body, err := breaker.Execute(func() ([]byte, error) {
		var body []byte
		n, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
			if err := gate.Wait(ctx); err != nil {
				return retry.Permanent(err)
			}

			reqCtx := ctx
			if proxy := f.proxies.Pick(spec.Name, attempt); proxy != nil {
				reqCtx = httpclient.WithProxy(ctx, proxy)
			}

			b, err := fn(reqCtx)
			if err == nil {
				f.recorder.Request(ctx, spec.Name, outcomeOK)
				body = b
				return nil
			}

			appErr, transient := classify(ctx, err)
			if appErr.Code == apperror.CodeRateLimitExceeded {
				penalty := gate.Penalize()
				f.recorder.Request(ctx, spec.Name, outcomeRateLimited)
				f.log.Warn(ctx, "rate limited, slowing platform",
					"platform", spec.Name,
					"penalty", penalty,
					"interval", gate.Interval(),
				)
			} else {
				f.recorder.Request(ctx, spec.Name, outcomeError)
			}
			if !transient {
				return retry.Permanent(appErr)
			}
			return appErr
		})
		attempts = n
		return body, err
	})
	if err != nil {
		if apperror.HasCode(err, apperror.CodeCircuitOpen, apperror.CodeCircuitHalfOpen) {
			f.recorder.Request(ctx, spec.Name, outcomeCircuitOpen)
			err, _ = classify(ctx, err)
		}
		return nil, &FetchError{URL: target, Attempts: attempts, Err: err}
	}
	return body, nil
}

func (f *Fetcher) breaker(name string) *circuitbreaker.CircuitBreaker[[]byte] {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.breakers[name]; ok {
		return cb
	}

	cfg := f.cfg.Breaker(name)
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		f.log.Warn(context.Background(), "circuit breaker state changed",
			"platform", name,
			"from", from.String(),
			"to", to.String(),
		)
	}
	// Client errors say nothing about platform health.
	cfg.IsSuccessful = func(err error) bool {
		var status *httpclient.StatusError
		if errors.As(err, &status) {
			return status.StatusCode < 500 && status.StatusCode != http.StatusTooManyRequests
		}
		var decode *httpclient.DecodeError
		return err == nil || errors.As(err, &decode) ||
			errors.Is(err, context.Canceled) || apperror.HasCode(err, apperror.CodeParseError)
	}

	cb := circuitbreaker.New[[]byte](cfg)
	f.breakers[name] = cb
	return cb
}
