// Package apm installs the OTEL trace provider and offers a thin tracer wrapper.
package apm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
)

// Provider names an exporter backend.
type Provider string

const (
	NewRelicProvider  Provider = "newrelic"
	ZipkinProvider    Provider = "zipkin"
	HoneycombProvider Provider = "honeycomb"
	ConsoleProvider   Provider = "console"
	EmptyProvider     Provider = "empty"
)

// TraceProvider is the installed provider; Stop flushes pending spans.
type TraceProvider interface {
	Stop() error
}

// ExporterConfig carries the endpoint settings exporters need.
type ExporterConfig struct {
	ServiceName string
	Endpoint    string
	Headers     string // key=value[,key=value]
	Protocol    string // grpc | http/protobuf
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

// TracerOptions collects the exporter chosen by WithProvider.
type TracerOptions struct {
	exporter           sdktrace.SpanExporter
	tracerProviderName string
	serviceName        string
	useEmpty           bool
	err                error
}

// TracerOption configures NewTraceProvider.
type TracerOption func(*TracerOptions)

// WithProvider selects an exporter. Unknown providers fall back to empty.
func WithProvider(provider Provider, cfg ExporterConfig, log logger.LoggerInterface) TracerOption {
	return func(o *TracerOptions) {
		o.serviceName = cfg.ServiceName
		o.tracerProviderName = string(provider)

		switch provider {
		case ZipkinProvider:
			o.exporter, o.err = zipkin.New(cfg.Endpoint)
		case ConsoleProvider:
			o.exporter, o.err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		case NewRelicProvider:
			o.exporter, o.err = otlptracegrpc.New(
				context.Background(),
				otlptracegrpc.WithEndpoint(cfg.Endpoint),
				otlptracegrpc.WithHeaders(parseHeaders(cfg.Headers)),
			)
		case HoneycombProvider:
			headers := parseHeaders(cfg.Headers)
			if len(headers) == 0 {
				o.err = fmt.Errorf("honeycomb exporter requires telemetry.otlp_headers as key=value")
				return
			}
			if cfg.Protocol == "http/protobuf" {
				log.Info(context.Background(), "initializing honeycomb http exporter", "endpoint", cfg.Endpoint)
				o.exporter, o.err = otlptracehttp.New(
					context.Background(),
					otlptracehttp.WithEndpointURL(cfg.Endpoint),
					otlptracehttp.WithHeaders(headers),
				)
			} else {
				log.Info(context.Background(), "initializing honeycomb grpc exporter", "endpoint", cfg.Endpoint)
				o.exporter, o.err = otlptracegrpc.New(
					context.Background(),
					otlptracegrpc.WithEndpointURL(cfg.Endpoint),
					otlptracegrpc.WithHeaders(headers),
				)
			}
		default:
			log.Warn(context.Background(), "trace provider not found, using empty provider", "provider", provider)
			o.useEmpty = true
			o.tracerProviderName = string(EmptyProvider)
		}
	}
}

func parseHeaders(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && k != "" {
			out[k] = v
		}
	}
	return out
}

// NewTraceProvider installs the global tracer provider and propagator.
func NewTraceProvider(log logger.LoggerInterface, options ...TracerOption) (TraceProvider, error) {
	opts := &TracerOptions{}
	for _, opt := range options {
		opt(opts)
	}

	if opts.err != nil {
		return nil, fmt.Errorf("trace exporter %s: %w", opts.tracerProviderName, opts.err)
	}
	if opts.useEmpty || opts.exporter == nil {
		return emptyTraceProvider{}, nil
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(opts.serviceName),
			attribute.String("otel.provider", opts.tracerProviderName),
		))
	if err != nil {
		log.Warn(context.Background(), "trace resource merge failed", "error", err)
		rsrc = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(opts.exporter),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	return &traceProvider{tp}, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return o.tp.Shutdown(ctx)
}
