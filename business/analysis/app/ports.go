package app

import (
	"context"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
)

// History supplies the records to analyze.
type History interface {
	// History returns records observed in the last days days, ordered by
	// (ObservedAt, ID).
	History(ctx context.Context, days int) ([]pricingDomain.PriceRecord, error)
}

// Reporter renders an insight bundle.
type Reporter interface {
	Report(ctx context.Context, bundle *domain.Bundle) error
}
