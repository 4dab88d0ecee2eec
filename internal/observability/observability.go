// Package observability wires OpenTelemetry tracing and Prometheus metrics.
package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "seo-checker/analyzer"

// Config controls observability initialisation.
type Config struct {
	Enabled        bool
	ServiceName    string
	Environment    string
	OTLPEndpoint   string
	OTLPHeaders    map[string]string
	OTLPInsecure   bool
	MetricsAddress string
}

// Providers exposes configured telemetry providers.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Propagator     propagation.TextMapPropagator
	MetricsHandler http.Handler
	Shutdown       func(ctx context.Context) error
	Config         Config
}

var (
	initOnce sync.Once

	analysisTracer trace.Tracer

	analysisDuration metric.Float64Histogram
	analysisTotal    metric.Int64Counter
	probeTotal       metric.Int64Counter
)

// Init configures tracing and metrics exporters. When cfg.Enabled is false the function is a no-op.
func Init(ctx context.Context, cfg Config) (*Providers, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "seo-checker"
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	traceOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}
	if exp := newSpanExporter(ctx, cfg); exp != nil {
		traceOpts = append(traceOpts, sdktrace.WithBatcher(exp))
	}

	tracerProvider := sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(tracerProvider)

	prop := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(prop)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	promExporter, err := otelprom.New(
		otelprom.WithRegisterer(registry),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, fmt.Errorf("create Prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)
	otel.SetMeterProvider(meterProvider)

	initOnce.Do(func() {
		analysisTracer = tracerProvider.Tracer(instrumentationName)
		if err := initInstruments(meterProvider); err != nil {
			log.Warn().Err(err).Msg("Failed to create analysis instruments")
		}
	})

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		var allErr error
		if err := meterProvider.Shutdown(ctx); err != nil {
			allErr = errors.Join(allErr, fmt.Errorf("metric provider shutdown: %w", err))
		}
		if err := tracerProvider.Shutdown(ctx); err != nil {
			allErr = errors.Join(allErr, fmt.Errorf("trace provider shutdown: %w", err))
		}
		return allErr
	}

	return &Providers{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Propagator:     prop,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Shutdown:       shutdown,
		Config:         cfg,
	}, nil
}

// newSpanExporter returns nil when no endpoint is set or the exporter cannot
// be built. Tracing then stays local.
func newSpanExporter(ctx context.Context, cfg Config) sdktrace.SpanExporter {
	if cfg.OTLPEndpoint == "" {
		return nil
	}

	clientOpts := []otlptracehttp.Option{
		endpointOption(cfg.OTLPEndpoint),
	}
	if cfg.OTLPInsecure {
		clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
	}
	if len(cfg.OTLPHeaders) > 0 {
		clientOpts = append(clientOpts, otlptracehttp.WithHeaders(cfg.OTLPHeaders))
	}

	exp, err := otlptracehttp.New(ctx, clientOpts...)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", cfg.OTLPEndpoint).Msg("Failed to create OTLP trace exporter, traces disabled")
		return nil
	}

	log.Info().Str("endpoint", cfg.OTLPEndpoint).Msg("OTLP trace exporter initialised")
	return exp
}

func endpointOption(endpoint string) otlptracehttp.Option {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return otlptracehttp.WithEndpointURL(endpoint)
	}
	return otlptracehttp.WithEndpoint(endpoint)
}

// WrapHandler applies OpenTelemetry instrumentation to an http.Handler when the providers are active.
func WrapHandler(handler http.Handler, prov *Providers) http.Handler {
	if prov == nil || prov.TracerProvider == nil {
		return handler
	}

	options := []otelhttp.Option{
		otelhttp.WithTracerProvider(prov.TracerProvider),
		otelhttp.WithPropagators(prov.Propagator),
		otelhttp.WithMeterProvider(prov.MeterProvider),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	}

	return otelhttp.NewHandler(handler, "http.server", options...)
}

func initInstruments(meterProvider metric.MeterProvider) error {
	if meterProvider == nil {
		return nil
	}

	meter := meterProvider.Meter(instrumentationName)

	var err error
	analysisDuration, err = meter.Float64Histogram(
		"seo.analysis.duration_ms",
		metric.WithUnit("ms"),
		metric.WithDescription("Time taken to analyse a page end to end"),
	)
	if err != nil {
		return err
	}

	analysisTotal, err = meter.Int64Counter(
		"seo.analysis.total",
		metric.WithDescription("Counts analysis outcomes"),
	)
	if err != nil {
		return err
	}

	probeTotal, err = meter.Int64Counter(
		"seo.probe.total",
		metric.WithDescription("Counts liveness probes by kind and outcome"),
	)
	return err
}

// AnalysisSpanInfo describes the attributes used when starting an analysis span.
type AnalysisSpanInfo struct {
	URL     string
	Offline bool
}

// AnalysisMetrics describes a finished analysis for metric recording.
type AnalysisMetrics struct {
	Status      string
	Duration    time.Duration
	AnchorCount int
	BrokenCount int
}

// StartAnalysisSpan starts the root span for one page analysis.
func StartAnalysisSpan(ctx context.Context, info AnalysisSpanInfo) (context.Context, trace.Span) {
	return tracer().Start(ctx, "analyzer.analyze", trace.WithAttributes(
		attribute.String("page.url", info.URL),
		attribute.Bool("analysis.offline", info.Offline),
	))
}

// StartStageSpan starts a child span for one stage of an analysis.
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "analyzer."+stage)
}

func tracer() trace.Tracer {
	if analysisTracer != nil {
		return analysisTracer
	}
	return otel.Tracer(instrumentationName)
}

// RecordAnalysis emits analysis metrics when instrumentation is initialised.
func RecordAnalysis(ctx context.Context, m AnalysisMetrics) {
	attrs := metric.WithAttributes(attribute.String("analysis.status", m.Status))

	if analysisDuration != nil {
		analysisDuration.Record(ctx, float64(m.Duration.Milliseconds()), attrs)
	}
	if analysisTotal != nil {
		analysisTotal.Add(ctx, 1, attrs)
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("analysis.status", m.Status),
		attribute.Int("analysis.anchor_count", m.AnchorCount),
		attribute.Int("analysis.broken_count", m.BrokenCount),
	)
}

// RecordProbe counts a single liveness probe.
func RecordProbe(ctx context.Context, kind string, broken bool) {
	if probeTotal == nil {
		return
	}
	outcome := "live"
	if broken {
		outcome = "broken"
	}
	probeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("probe.kind", kind),
		attribute.String("probe.outcome", outcome),
	))
}
