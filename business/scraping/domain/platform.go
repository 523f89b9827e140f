// Package domain contains the scraping entities: platforms, per-platform
// results, scrape errors and the cycle state machine.
package domain

import (
	"strings"
	"time"
)

// Scraper types understood by the registry.
const (
	TypeHTML    = "html"
	TypeAPI     = "api"
	TypeBrowser = "browser"
	TypeSample  = "sample"
)

// DefaultMaxListings caps the listings taken from one search page.
const DefaultMaxListings = 20

// Selectors are ordered CSS selector fallbacks. The first selector that
// matches wins.
type Selectors struct {
	Listing   []string
	Title     []string
	Price     []string
	Condition []string
	Storage   []string
	Link      []string
	Sold      []string
}

// FieldPaths are dotted paths into a JSON API item.
type FieldPaths struct {
	Items     string
	Title     string
	Price     string
	Currency  string
	Condition string
	Storage   string
	URL       string
	Available string
}

// PlatformSpec describes one marketplace in one region.
type PlatformSpec struct {
	Name             string
	Region           string
	BaseURL          string
	ScraperType      string
	RateLimit        time.Duration
	PageQuota        int // API pages per minute, zero for unlimited
	Currency         string
	SearchPath       string
	RequiresAuth     bool
	APIKey           string
	APIKeyHeader     string
	MaxListings      int
	MaxPages         int
	PageParam        string
	Conditions       map[string]string
	DefaultCondition string
	Selectors        Selectors
	Fields           FieldPaths
}

// Key identifies the (platform, region) task.
func (p PlatformSpec) Key() string {
	return p.Region + "/" + p.Name
}

// ListingCap returns MaxListings or the default.
func (p PlatformSpec) ListingCap() int {
	if p.MaxListings <= 0 {
		return DefaultMaxListings
	}
	return p.MaxListings
}

// PageCap returns MaxPages, at least one.
func (p PlatformSpec) PageCap() int {
	if p.MaxPages <= 0 {
		return 1
	}
	return p.MaxPages
}

// Matches reports whether the platform passes the optional region and
// platform filters. Comparison ignores case.
func (p PlatformSpec) Matches(region, platform string) bool {
	if region != "" && !strings.EqualFold(region, p.Region) {
		return false
	}
	if platform != "" && !strings.EqualFold(platform, p.Name) {
		return false
	}
	return true
}
