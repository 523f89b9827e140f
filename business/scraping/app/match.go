package app

import (
	"context"
	"strings"
	"unicode"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
)

// Skipped counts listings an adapter read but did not turn into
// observations.
type Skipped struct {
	Unpriced   int // no readable price
	OtherModel int // title names a different catalog model
}

// Total returns every skipped listing.
func (s Skipped) Total() int {
	return s.Unpriced + s.OtherModel
}

// Add accumulates o into s.
func (s *Skipped) Add(o Skipped) {
	s.Unpriced += o.Unpriced
	s.OtherModel += o.OtherModel
}

// MatchModel picks the searched model a listing title refers to. A title
// naming none of them is attributed to the first. It reports false when
// the title names a longer catalog model than the searched one, such as
// "Pixel 9 Pro" on a "Pixel 9" search. catalog may be nil.
func MatchModel(catalog *pricingDomain.Catalog, title string, models []pricingDomain.PhoneModel) (pricingDomain.PhoneModel, bool) {
	if len(models) == 0 {
		return pricingDomain.PhoneModel{}, true
	}
	t := phrase(title)
	if t == "" {
		return models[0], true
	}

	best, bestLen := models[0], -1
	for _, m := range models {
		if n := phrase(m.Name); n != "" && containsPhrase(t, n) && len(n) > bestLen {
			best, bestLen = m, len(n)
		}
	}
	if catalog == nil {
		return best, true
	}

	searched := phrase(best.Name)
	for _, m := range catalog.Models() {
		n := phrase(m.Name)
		if len(n) <= len(searched) || !containsPhrase(n, searched) {
			continue
		}
		if containsPhrase(t, n) {
			return pricingDomain.PhoneModel{}, false
		}
	}
	return best, true
}

// phrase lower-cases s and reduces it to single-spaced words.
func phrase(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

func containsPhrase(haystack, needle string) bool {
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

// LogSkipped reports unpriced listings at warn level and listings for
// other models at debug level.
func LogSkipped(ctx context.Context, log logger.LoggerInterface, spec domain.PlatformSpec, target string, skipped Skipped) {
	if skipped.Unpriced > 0 {
		log.Warn(ctx, "listings without a readable price",
			"platform", spec.Name,
			"region", spec.Region,
			"url", target,
			"count", skipped.Unpriced,
		)
	}
	if skipped.OtherModel > 0 {
		log.Debug(ctx, "listings for other models skipped",
			"platform", spec.Name,
			"region", spec.Region,
			"url", target,
			"count", skipped.OtherModel,
		)
	}
}
