package app

import (
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/config"
)

// SpecFromConfig converts a configured platform.
func SpecFromConfig(p config.PlatformConfig) domain.PlatformSpec {
	return domain.PlatformSpec{
		Name:             p.Name,
		Region:           p.Region,
		BaseURL:          p.BaseURL,
		ScraperType:      p.ScraperType,
		RateLimit:        p.RateLimitDuration(),
		PageQuota:        p.PageQuota,
		Currency:         p.Currency,
		SearchPath:       p.SearchPath,
		RequiresAuth:     p.RequiresAuth,
		APIKey:           p.APIKey,
		APIKeyHeader:     p.APIKeyHeader,
		MaxListings:      p.MaxListings,
		MaxPages:         p.MaxPages,
		PageParam:        p.PageParam,
		Conditions:       p.Conditions,
		DefaultCondition: p.DefaultCondition,
		Selectors: domain.Selectors{
			Listing:   p.Selectors.Listing,
			Title:     p.Selectors.Title,
			Price:     p.Selectors.Price,
			Condition: p.Selectors.Condition,
			Storage:   p.Selectors.Storage,
			Link:      p.Selectors.Link,
			Sold:      p.Selectors.Sold,
		},
		Fields: domain.FieldPaths{
			Items:     p.Fields.Items,
			Title:     p.Fields.Title,
			Price:     p.Fields.Price,
			Currency:  p.Fields.Currency,
			Condition: p.Fields.Condition,
			Storage:   p.Fields.Storage,
			URL:       p.Fields.URL,
			Available: p.Fields.Available,
		},
	}
}

// SpecsFromConfig converts every enabled platform.
func SpecsFromConfig(cfg *config.Config) []domain.PlatformSpec {
	enabled := cfg.EnabledPlatforms()
	out := make([]domain.PlatformSpec, 0, len(enabled))
	for _, p := range enabled {
		out = append(out, SpecFromConfig(p))
	}
	return out
}
