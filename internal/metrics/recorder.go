package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "pricetracker"

// Recorder holds the scrape and analysis instruments. It records into
// the global meter provider, which is a no-op unless telemetry is enabled.
type Recorder struct {
	requests metric.Int64Counter
	records  metric.Int64Counter
	dropped  metric.Int64Counter
	duration metric.Float64Histogram
	insights metric.Int64Counter
}

// NewRecorder creates the instruments on mp, or the global provider if nil.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	requests, err := meter.Int64Counter("scrape_requests_total",
		metric.WithDescription("Marketplace requests by platform and outcome"))
	if err != nil {
		return nil, err
	}
	records, err := meter.Int64Counter("scrape_records_total",
		metric.WithDescription("Normalized price records produced"))
	if err != nil {
		return nil, err
	}
	dropped, err := meter.Int64Counter("scrape_dropped_total",
		metric.WithDescription("Observations dropped during normalization"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("scrape_duration_seconds",
		metric.WithDescription("Per-platform scrape task duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	insights, err := meter.Int64Counter("analysis_insights_total",
		metric.WithDescription("Insights emitted by kind"))
	if err != nil {
		return nil, err
	}

	return &Recorder{
		requests: requests,
		records:  records,
		dropped:  dropped,
		duration: duration,
		insights: insights,
	}, nil
}

// Request counts one marketplace request.
func (r *Recorder) Request(ctx context.Context, platform, outcome string) {
	if r == nil {
		return
	}
	r.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("platform", platform),
		attribute.String("outcome", outcome),
	))
}

// Records counts normalized records for a platform.
func (r *Recorder) Records(ctx context.Context, platform, region string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.records.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("platform", platform),
		attribute.String("region", region),
	))
}

// Dropped counts observations rejected by normalization.
func (r *Recorder) Dropped(ctx context.Context, platform, reason string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.dropped.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("platform", platform),
		attribute.String("reason", reason),
	))
}

// Duration observes one platform task.
func (r *Recorder) Duration(ctx context.Context, platform, region string, d time.Duration) {
	if r == nil {
		return
	}
	r.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("platform", platform),
		attribute.String("region", region),
	))
}

// Insights counts emitted insights of one kind.
func (r *Recorder) Insights(ctx context.Context, kind string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.insights.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}
