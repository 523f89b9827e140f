package app

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
)

const (
	recentWindow = 7 * 24 * time.Hour
	topModels    = 5
)

// summarize computes market-wide counts. Recent means the last 7 days
// before now, or before the newest record when now is zero.
func summarize(records []pricingDomain.PriceRecord, now time.Time) domain.MarketSummary {
	s := domain.MarketSummary{
		TotalRecords:    len(records),
		AvgPriceByBrand: map[string]decimal.Decimal{},
		TopModels:       []domain.ModelCount{},
		PlatformRecords: map[string]int{},
	}
	if len(records) == 0 {
		return s
	}
	if now.IsZero() {
		now = records[len(records)-1].ObservedAt
	}
	since := now.Add(-recentWindow)

	models := map[string]struct{}{}
	brandPrices := map[string][]decimal.Decimal{}
	families := map[string]int{}

	for _, r := range records {
		if !r.ObservedAt.Before(since) {
			s.RecentRecords++
		}
		models[r.Model.Key()] = struct{}{}
		s.PlatformRecords[r.Platform]++
		brandPrices[r.Model.Brand] = append(brandPrices[r.Model.Brand], r.Price)
		families[r.Model.Brand+" "+r.Model.Name]++
	}

	s.Models = len(models)
	s.Platforms = len(s.PlatformRecords)
	for brand, ps := range brandPrices {
		s.AvgPriceByBrand[brand] = mean(ps).Round(2)
	}

	for name, n := range families {
		s.TopModels = append(s.TopModels, domain.ModelCount{Model: name, Records: n})
	}
	sort.Slice(s.TopModels, func(i, j int) bool {
		if s.TopModels[i].Records != s.TopModels[j].Records {
			return s.TopModels[i].Records > s.TopModels[j].Records
		}
		return s.TopModels[i].Model < s.TopModels[j].Model
	})
	if len(s.TopModels) > topModels {
		s.TopModels = s.TopModels[:topModels]
	}
	return s
}
