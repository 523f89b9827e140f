package domain

import (
	"fmt"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
)

// ErrorKind classifies a scrape failure.
type ErrorKind string

const (
	KindTransport     ErrorKind = "Transport"
	KindRateLimit     ErrorKind = "RateLimit"
	KindParse         ErrorKind = "Parse"
	KindConfiguration ErrorKind = "Configuration"
	KindNormalization ErrorKind = "Normalization"
	KindTimeout       ErrorKind = "Timeout"
	KindCancelled     ErrorKind = "Cancelled"
)

// ScrapeError records one failure inside a platform task. It never aborts
// the cycle.
type ScrapeError struct {
	Platform string    `json:"platform"`
	Region   string    `json:"region"`
	Kind     ErrorKind `json:"kind"`
	URL      string    `json:"url,omitempty"`
	Attempts int       `json:"attempts,omitempty"`
	Message  string    `json:"message"`
}

func (e ScrapeError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s/%s: %s: %s (%s)", e.Region, e.Platform, e.Kind, e.Message, e.URL)
	}
	return fmt.Sprintf("%s/%s: %s: %s", e.Region, e.Platform, e.Kind, e.Message)
}

// AdapterResult is what an adapter returns for one Scrape call.
// Attempted and Succeeded count search requests.
type AdapterResult struct {
	Observations []pricingDomain.Observation
	Errors       []ScrapeError
	Attempted    int
	Succeeded    int
}

// AddError appends a failure.
func (r *AdapterResult) AddError(e ScrapeError) {
	r.Errors = append(r.Errors, e)
}

// ScrapeResult is the normalized outcome of one (platform, region) task.
type ScrapeResult struct {
	Platform  string                      `json:"platform"`
	Region    string                      `json:"region"`
	Attempted int                         `json:"attempted"`
	Succeeded int                         `json:"succeeded"`
	Records   []pricingDomain.PriceRecord `json:"-"`
	Errors    []ScrapeError               `json:"errors,omitempty"`
	Dropped   int                         `json:"dropped"`
}

// Failed reports whether the task produced nothing usable.
func (r ScrapeResult) Failed() bool {
	return r.Succeeded == 0 && (r.Attempted > 0 || len(r.Errors) > 0)
}

// HasKind reports whether any error is of kind k.
func (r ScrapeResult) HasKind(k ErrorKind) bool {
	for _, e := range r.Errors {
		if e.Kind == k {
			return true
		}
	}
	return false
}
