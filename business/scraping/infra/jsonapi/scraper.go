// Package jsonapi scrapes marketplaces that expose a paginated JSON search
// API. Field locations are configured as dotted paths.
package jsonapi

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/app"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/ratelimit"
)

const defaultKeyHeader = "X-API-Key"

// Scraper is the JSON API adapter.
type Scraper struct {
	spec    domain.PlatformSpec
	deps    app.Deps
	headers map[string]string
	quota   *ratelimit.Limiter
}

// New creates a JSON API adapter. Platforms that require auth fail here
// when no API key is configured.
func New(spec domain.PlatformSpec, deps app.Deps) (app.Adapter, error) {
	if spec.RequiresAuth && strings.TrimSpace(spec.APIKey) == "" {
		return nil, apperror.New(apperror.CodeMissingCredentials,
			apperror.WithContext(spec.Key()+": api_key is required"))
	}
	if spec.Fields.Items == "" || spec.Fields.Price == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(spec.Key()+": fields.items and fields.price are required"))
	}
	if deps.Fetcher == nil || deps.Currencies == nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(spec.Key()+": fetcher and currencies are required"))
	}
	if _, err := app.BuildSearchURL(spec, pricingDomain.PhoneModel{}); err != nil {
		return nil, err
	}

	headers := map[string]string{"Accept": "application/json"}
	if spec.APIKey != "" {
		name := spec.APIKeyHeader
		if name == "" {
			name = defaultKeyHeader
		}
		value := spec.APIKey
		if strings.EqualFold(name, "Authorization") && !strings.Contains(value, " ") {
			value = "Bearer " + value
		}
		headers[name] = value
	}

	return &Scraper{
		spec:    spec,
		deps:    deps,
		headers: headers,
		quota:   deps.Fetcher.Quota(spec.Name, spec.PageQuota),
	}, nil
}

func (s *Scraper) Platform() domain.PlatformSpec {
	return s.spec
}

func (s *Scraper) BuildSearchURL(model pricingDomain.PhoneModel) (string, error) {
	return app.BuildSearchURL(s.spec, model)
}

func (s *Scraper) Scrape(ctx context.Context, models []pricingDomain.PhoneModel) *domain.AdapterResult {
	return app.ScrapeModels(ctx, s, models, s.search)
}

// search walks pages until one is empty, the page cap is reached or the
// listing cap is filled. A failure after the first page keeps what was
// already read.
func (s *Scraper) search(ctx context.Context, target string, models []pricingDomain.PhoneModel) ([]pricingDomain.Observation, error) {
	var out []pricingDomain.Observation
	var skipped app.Skipped
	defer func() {
		app.LogSkipped(ctx, s.deps.Log, s.spec, target, skipped)
	}()

	limit := s.spec.ListingCap()
	pages := s.spec.PageCap()

	for page := 1; page <= pages && len(out) < limit; page++ {
		items, err := s.fetchPage(ctx, target, page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			s.deps.Log.Warn(ctx, "pagination stopped early",
				"platform", s.spec.Name,
				"region", s.spec.Region,
				"page", page,
				"error", err.Error(),
			)
			break
		}
		if len(items) == 0 {
			break
		}

		for i, item := range items {
			if len(out) >= limit {
				break
			}
			obs, skip := s.observation(item, target, page, i, models)
			if skip.Total() > 0 {
				skipped.Add(skip)
				continue
			}
			out = append(out, obs)
		}
	}
	return out, nil
}

// fetchPage waits on the platform's page quota, then fetches and decodes
// one page of items.
func (s *Scraper) fetchPage(ctx context.Context, target string, page int) ([]any, error) {
	if err := s.quota.Wait(ctx); err != nil {
		return nil, &app.FetchError{URL: target, Err: apperror.Wrap(err, apperror.CodeScrapeTimeout, "page quota")}
	}

	req := app.FetchRequest{URL: target, Headers: s.headers}
	if s.spec.PageParam != "" && s.spec.PageCap() > 1 {
		req.Query = map[string]string{s.spec.PageParam: strconv.Itoa(page)}
	}
	body, err := s.deps.Fetcher.Get(ctx, s.spec, req)
	if err != nil {
		return nil, err
	}

	items, err := decodeItems(body, s.spec.Fields.Items)
	if err != nil {
		return nil, &app.FetchError{URL: target, Attempts: 1, Err: err}
	}
	return items, nil
}

func (s *Scraper) observation(item any, target string, page, index int, models []pricingDomain.PhoneModel) (pricingDomain.Observation, app.Skipped) {
	f := s.spec.Fields

	amount, cur, ok := price(s.deps.Currencies, lookup(item, f.Price))
	if !ok {
		return pricingDomain.Observation{}, app.Skipped{Unpriced: 1}
	}
	code := s.spec.Currency
	if c := stringAt(item, f.Currency); c != "" {
		code = c
	} else if cur != nil {
		code = cur.Code()
	}

	title := stringAt(item, f.Title)
	model, ok := app.MatchModel(s.deps.Catalog, title, models)
	if !ok {
		return pricingDomain.Observation{}, app.Skipped{OtherModel: 1}
	}
	storage := stringAt(item, f.Storage)
	if storage == "" {
		if _, found := pricingDomain.FindStorage(title); !found {
			storage = app.FallbackStorage(models)
		}
	}
	condition := stringAt(item, f.Condition)
	if condition == "" {
		condition = title
	}

	sourceURL := target + "#p" + strconv.Itoa(page) + "-" + strconv.Itoa(index)
	if link := stringAt(item, f.URL); link != "" {
		if base, err := url.Parse(s.spec.BaseURL); err == nil {
			if ref, err := url.Parse(link); err == nil {
				sourceURL = base.ResolveReference(ref).String()
			}
		}
	}

	return pricingDomain.Observation{
		Platform:      s.spec.Name,
		Region:        s.spec.Region,
		Brand:         model.Brand,
		Model:         model.Name,
		StorageText:   storage,
		ConditionText: condition,
		Amount:        amount,
		Currency:      code,
		ObservedAt:    s.deps.Clock(),
		SourceURL:     sourceURL,
		Title:         title,
		Available:     available(lookup(item, f.Available)),
	}, app.Skipped{}
}
