// Package browser scrapes marketplaces that render listings client-side.
// Pages are loaded in headless Chrome and the rendered DOM is parsed with
// the HTML adapter's selectors.
package browser

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/app"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/infra/htmlscraper"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
)

const (
	userAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	settleDelay = 2 * time.Second
)

// Scraper is the headless browser adapter.
type Scraper struct {
	spec   domain.PlatformSpec
	deps   app.Deps
	binary string
}

func New(spec domain.PlatformSpec, deps app.Deps) (app.Adapter, error) {
	if deps.Fetcher == nil || deps.Currencies == nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(spec.Key()+": fetcher and currencies are required"))
	}
	if len(spec.Selectors.Listing) == 0 || len(spec.Selectors.Price) == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(spec.Key()+": listing and price selectors are required"))
	}
	if _, err := app.BuildSearchURL(spec, pricingDomain.PhoneModel{}); err != nil {
		return nil, err
	}
	return &Scraper{spec: spec, deps: deps, binary: findChrome()}, nil
}

func (s *Scraper) Platform() domain.PlatformSpec {
	return s.spec
}

func (s *Scraper) BuildSearchURL(model pricingDomain.PhoneModel) (string, error) {
	return app.BuildSearchURL(s.spec, model)
}

// Scrape starts one browser for the whole run and opens a tab per search
// URL. The browser exits when Scrape returns.
func (s *Scraper) Scrape(ctx context.Context, models []pricingDomain.PhoneModel) *domain.AdapterResult {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if s.binary != "" {
		opts = append(opts, chromedp.ExecPath(s.binary))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx); err != nil {
		result := &domain.AdapterResult{}
		result.AddError(app.ToScrapeError(s.spec,
			apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err), apperror.WithContext("browser start"))))
		return result
	}

	return app.ScrapeModels(ctx, s, models, func(ctx context.Context, target string, models []pricingDomain.PhoneModel) ([]pricingDomain.Observation, error) {
		return s.page(ctx, browserCtx, target, models)
	})
}

func (s *Scraper) page(ctx, browserCtx context.Context, target string, models []pricingDomain.PhoneModel) ([]pricingDomain.Observation, error) {
	body, err := s.deps.Fetcher.Do(ctx, s.spec, target, func(ctx context.Context) ([]byte, error) {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()
		stop := context.AfterFunc(ctx, cancel)
		defer stop()

		var html string
		err := chromedp.Run(tabCtx,
			chromedp.Navigate(target),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(settleDelay),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, apperror.External(apperror.CodeTransportError, "browser navigation", err)
		}
		return []byte(html), nil
	})
	if err != nil {
		return nil, err
	}

	obs, skipped, err := htmlscraper.Parse(bytes.NewReader(body), htmlscraper.Page{
		Spec:       s.spec,
		URL:        target,
		Models:     models,
		Catalog:    s.deps.Catalog,
		Currencies: s.deps.Currencies,
		ObservedAt: s.deps.Clock(),
	})
	app.LogSkipped(ctx, s.deps.Log, s.spec, target, skipped)
	if err != nil {
		return nil, &app.FetchError{URL: target, Attempts: 1, Err: err}
	}
	return obs, nil
}

func findChrome() string {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
