package domain

import (
	"time"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
)

// Mode selects which two points a trend delta compares.
type Mode string

const (
	// ModeLatest compares the last two records of a group.
	ModeLatest Mode = "latest"
	// ModeWindow compares the first and last record in the window.
	ModeWindow Mode = "window"
)

// ParseMode returns ModeLatest for anything other than "window".
func ParseMode(s string) Mode {
	if Mode(s) == ModeWindow {
		return ModeWindow
	}
	return ModeLatest
}

// Direction is the fitted trend of a price series.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// Options parameterize one analysis run.
type Options struct {
	Now        time.Time
	WindowDays int
	Mode       Mode
}

// Series identifies one (platform, region, model, condition) price series.
type Series struct {
	Platform  string                   `json:"platform"`
	Region    string                   `json:"region"`
	ModelKey  string                   `json:"model_key"`
	Model     pricingDomain.PhoneModel `json:"model"`
	Condition pricingDomain.Condition  `json:"condition"`
}

// TrendDelta is a significant price move within one series.
type TrendDelta struct {
	Series
	OldRecordID string          `json:"old_record_id"`
	NewRecordID string          `json:"new_record_id"`
	OldPrice    decimal.Decimal `json:"old_price"`
	NewPrice    decimal.Decimal `json:"new_price"`
	Change      decimal.Decimal `json:"change"`
	ChangePct   decimal.Decimal `json:"change_pct"`
	Direction   Direction       `json:"direction"`
	Confidence  float64         `json:"confidence"`
	Points      int             `json:"points"`
}

// VolatilityReport describes the dispersion of one series.
type VolatilityReport struct {
	Series
	Count    int             `json:"count"`
	Mean     decimal.Decimal `json:"mean"`
	StdDev   decimal.Decimal `json:"std_dev"`
	CVPct    decimal.Decimal `json:"cv_pct"`
	Min      decimal.Decimal `json:"min"`
	Max      decimal.Decimal `json:"max"`
	Unstable bool            `json:"unstable"`
}

// Offer is the latest available price of a model on one platform and region.
type Offer struct {
	RecordID   string          `json:"record_id"`
	Platform   string          `json:"platform"`
	Region     string          `json:"region"`
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"observed_at"`
	SourceURL  string          `json:"source_url,omitempty"`
}

// ArbitrageOpportunity pairs the cheapest and the dearest offer of a model.
type ArbitrageOpportunity struct {
	ModelKey  string                   `json:"model_key"`
	Model     pricingDomain.PhoneModel `json:"model"`
	Condition pricingDomain.Condition  `json:"condition"`
	Buy       Offer                    `json:"buy"`
	Sell      Offer                    `json:"sell"`
	Spread    Spread                   `json:"spread"`
	Offers    int                      `json:"offers"`
}

// BestDeal is the cheapest current offer of a model and grade.
type BestDeal struct {
	ModelKey   string                   `json:"model_key"`
	Model      pricingDomain.PhoneModel `json:"model"`
	Condition  pricingDomain.Condition  `json:"condition"`
	Offer      Offer                    `json:"offer"`
	Mean       decimal.Decimal          `json:"mean"`
	Savings    decimal.Decimal          `json:"savings"`
	SavingsPct decimal.Decimal          `json:"savings_pct"`
}

// ModelCount is one entry of the most tracked models.
type ModelCount struct {
	Model   string `json:"model"`
	Records int    `json:"records"`
}

// MarketSummary gives overall statistics of the analyzed snapshot.
type MarketSummary struct {
	TotalRecords    int                        `json:"total_records"`
	RecentRecords   int                        `json:"recent_records"`
	Models          int                        `json:"models"`
	Platforms       int                        `json:"platforms"`
	AvgPriceByBrand map[string]decimal.Decimal `json:"avg_price_by_brand"`
	TopModels       []ModelCount               `json:"top_models"`
	PlatformRecords map[string]int             `json:"platform_records"`
}

// Bundle is the complete output of one analysis run.
type Bundle struct {
	GeneratedAt            time.Time              `json:"generated_at"`
	WindowDays             int                    `json:"window_days"`
	Mode                   Mode                   `json:"mode"`
	Currency               string                 `json:"currency,omitempty"`
	TrendDeltas            []TrendDelta           `json:"trend_deltas"`
	VolatilityReports      []VolatilityReport     `json:"volatility_reports"`
	ArbitrageOpportunities []ArbitrageOpportunity `json:"arbitrage_opportunities"`
	BestDeals              []BestDeal             `json:"best_deals"`
	Summary                MarketSummary          `json:"summary"`
}

// Count returns the number of insights in the bundle.
func (b *Bundle) Count() int {
	return len(b.TrendDeltas) + len(b.VolatilityReports) + len(b.ArbitrageOpportunities) + len(b.BestDeals)
}
