package main

import (
	"context"

	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	scrapingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/stream"
	"github.com/prem-pandian/smartphone-price-tracker-v2/pkg/ui"
)

// dashboardSink turns published events into dashboard messages. Insight
// bundles reach the dashboard through the analysis TUI reporter instead.
func dashboardSink(send func(msg any)) stream.Publisher {
	return stream.PublisherFunc(func(_ context.Context, eventType string, data any) error {
		switch eventType {
		case stream.EventCycleCompleted:
			if s, ok := data.(pricingDomain.Session); ok {
				send(ui.CycleMsg{Session: s})
			}
		case stream.EventPlatformFailed:
			if r, ok := data.(scrapingDomain.ScrapeResult); ok {
				reason := "no records"
				if len(r.Errors) > 0 {
					reason = r.Errors[0].Message
				}
				send(ui.PlatformFailedMsg{Platform: r.Platform, Region: r.Region, Reason: reason})
			}
		}
		return nil
	})
}
