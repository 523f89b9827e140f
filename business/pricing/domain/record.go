package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// recordNamespace seeds deterministic record IDs.
var recordNamespace = uuid.MustParse("6f1c2a9e-3b7d-4f0a-9c51-8d2e4b6a7c10")

// Observation is one raw listing as an adapter saw it.
type Observation struct {
	Platform      string
	Region        string
	Brand         string
	Model         string
	StorageText   string
	ConditionText string
	Amount        decimal.Decimal
	Currency      string
	ObservedAt    time.Time
	SourceURL     string
	Title         string
	Available     bool
}

// PriceRecord is the canonical, append-only price point.
type PriceRecord struct {
	ID               string          `json:"id"`
	Platform         string          `json:"platform"`
	Region           string          `json:"region"`
	Model            PhoneModel      `json:"model"`
	Condition        Condition       `json:"condition"`
	Price            decimal.Decimal `json:"price"`
	Currency         string          `json:"currency"`
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	OriginalCurrency string          `json:"original_currency"`
	Rate             decimal.Decimal `json:"rate"`
	Available        bool            `json:"available"`
	ObservedAt       time.Time       `json:"observed_at"`
	SourceURL        string          `json:"source_url"`
	BatchID          string          `json:"batch_id"`
}

// DedupKey groups records that describe the same offer slot.
type DedupKey struct {
	Platform  string
	Region    string
	ModelKey  string
	Condition Condition
}

// Key returns the record's dedup key.
func (r PriceRecord) Key() DedupKey {
	return DedupKey{
		Platform:  r.Platform,
		Region:    r.Region,
		ModelKey:  r.Model.Key(),
		Condition: r.Condition,
	}
}

func (k DedupKey) String() string {
	return strings.Join([]string{k.Platform, k.Region, k.ModelKey, string(k.Condition)}, "|")
}

// Less orders keys by platform, region, model key then condition.
func (k DedupKey) Less(o DedupKey) bool {
	if k.Platform != o.Platform {
		return k.Platform < o.Platform
	}
	if k.Region != o.Region {
		return k.Region < o.Region
	}
	if k.ModelKey != o.ModelKey {
		return k.ModelKey < o.ModelKey
	}
	return k.Condition < o.Condition
}

// RecordID derives a stable ID from the natural key, the listing and the batch,
// so re-normalizing the same batch yields the same IDs.
func RecordID(key DedupKey, sourceURL string, observedAt time.Time, price decimal.Decimal, batchID string) string {
	name := strings.Join([]string{
		key.String(),
		sourceURL,
		observedAt.UTC().Format(time.RFC3339Nano),
		price.StringFixed(2),
		batchID,
	}, "|")
	return uuid.NewSHA1(recordNamespace, []byte(name)).String()
}

// Filter selects records from a repository. Zero fields match everything.
type Filter struct {
	Platform string
	Region   string
	ModelKey string
	Since    time.Time
	Until    time.Time
}

// Match reports whether r passes the filter.
func (f Filter) Match(r PriceRecord) bool {
	if f.Platform != "" && !strings.EqualFold(f.Platform, r.Platform) {
		return false
	}
	if f.Region != "" && !strings.EqualFold(f.Region, r.Region) {
		return false
	}
	if f.ModelKey != "" && !strings.EqualFold(f.ModelKey, r.Model.Key()) {
		return false
	}
	if !f.Since.IsZero() && r.ObservedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !r.ObservedAt.Before(f.Until) {
		return false
	}
	return true
}

// RecordLess orders by (ObservedAt, ID).
func RecordLess(a, b PriceRecord) bool {
	if !a.ObservedAt.Equal(b.ObservedAt) {
		return a.ObservedAt.Before(b.ObservedAt)
	}
	return a.ID < b.ID
}

// Stats summarizes repository contents.
type Stats struct {
	TotalRecords  int       `json:"total_records"`
	RecentRecords int       `json:"recent_records"`
	Platforms     int       `json:"platforms"`
	Models        int       `json:"models"`
	Oldest        time.Time `json:"oldest,omitempty"`
	Newest        time.Time `json:"newest,omitempty"`
}
