// Package telemetry bridges this module's metrics and tracing through
// OpenTelemetry: counters and histograms are OTel instruments exported to
// Prometheus via the otel/exporters/prometheus bridge, and a tracer wraps
// the token-refresh path in a named span.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/transipdev/transip-acme-go/pkg/logging"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	serviceName    = "transip-acme-go"
	serviceVersion = "1.0"
	instrumentName = "transip-acme-go"
)

// Metrics is the fixed set of OpenTelemetry instruments this module emits.
type Metrics struct {
	HTTPRequestsTotal        metric.Int64Counter
	HTTPRequestDuration      metric.Float64Histogram
	TokenRefreshTotal        metric.Int64Counter
	PropagationAttemptsTotal metric.Int64Counter
	PropagationDuration      metric.Float64Histogram
}

// Telemetry owns the meter provider, the Prometheus HTTP exporter server
// (when enabled), and the tracer provider used to wrap token refresh in a
// named span.
type Telemetry struct {
	meterProvider metric.MeterProvider
	Metrics       *Metrics

	tracerProvider oteltrace.TracerProvider

	sdkMeterProvider  *sdkmetric.MeterProvider
	sdkTracerProvider *trace.TracerProvider

	server *http.Server
	logger *logging.Logger
}

// New builds a Telemetry instance. When addr is empty, metrics are bound to
// no-op instruments and the tracer falls back to the no-op provider —
// appropriate for a one-shot CLI invocation where nothing will ever scrape
// /metrics. When addr is set, metrics are exported through the OpenTelemetry
// Prometheus bridge and served at addr + "/metrics".
func New(addr string, logger *logging.Logger) (*Telemetry, error) {
	t := &Telemetry{logger: logger}

	if addr == "" {
		t.meterProvider = metricnoop.NewMeterProvider()
		t.tracerProvider = tracenoop.NewTracerProvider()

		metrics, err := registerMetrics(t.meterProvider)
		if err != nil {
			return nil, err
		}
		t.Metrics = metrics
		return t, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("building telemetry resource: %w", err)
	}

	exporter, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.meterProvider = meterProvider
	t.sdkMeterProvider = meterProvider

	tracerProvider := trace.NewTracerProvider(trace.WithResource(res))
	t.tracerProvider = tracerProvider
	t.sdkTracerProvider = tracerProvider

	metrics, err := registerMetrics(meterProvider)
	if err != nil {
		return nil, err
	}
	t.Metrics = metrics

	if err := t.startServer(addr); err != nil {
		return nil, err
	}

	return t, nil
}

func registerMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(instrumentName)

	httpRequestsTotal, err := meter.Int64Counter(
		"transip_http_requests_total",
		metric.WithDescription("Total outbound requests against the provider's REST API."),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http requests counter: %w", err)
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"transip_http_request_duration_seconds",
		metric.WithDescription("Outbound request duration against the provider's REST API."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http request duration histogram: %w", err)
	}

	tokenRefreshTotal, err := meter.Int64Counter(
		"transip_token_refresh_total",
		metric.WithDescription("Total bearer token refresh attempts."),
	)
	if err != nil {
		return nil, fmt.Errorf("creating token refresh counter: %w", err)
	}

	propagationAttemptsTotal, err := meter.Int64Counter(
		"transip_propagation_attempts_total",
		metric.WithDescription("Total DNS propagation polling attempts across all invocations."),
	)
	if err != nil {
		return nil, fmt.Errorf("creating propagation attempts counter: %w", err)
	}

	propagationDuration, err := meter.Float64Histogram(
		"transip_propagation_duration_seconds",
		metric.WithDescription("Wall-clock time spent waiting for DNS propagation to complete."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating propagation duration histogram: %w", err)
	}

	return &Metrics{
		HTTPRequestsTotal:        httpRequestsTotal,
		HTTPRequestDuration:      httpRequestDuration,
		TokenRefreshTotal:        tokenRefreshTotal,
		PropagationAttemptsTotal: propagationAttemptsTotal,
		PropagationDuration:      propagationDuration,
	}, nil
}

func (t *Telemetry) startServer(addr string) error {
	mux := http.NewServeMux()

	// promhttp.Handler() serves prometheus.DefaultGatherer, which the
	// otel/exporters/prometheus exporter registers itself against.
	mux.Handle("/metrics", promhttp.Handler())

	t.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.logger.Error("metrics server failed", "error", err)
		}
	}()

	t.logger.Info("metrics listener started", "addr", addr)
	return nil
}

// Tracer returns the tracer used to wrap the token-refresh span.
func (t *Telemetry) Tracer() oteltrace.Tracer {
	return t.tracerProvider.Tracer(instrumentName)
}

// ObserveHTTP records the outcome and elapsed time of one outbound HTTP call.
func (t *Telemetry) ObserveHTTP(method, outcome string, elapsed time.Duration) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("method", method), attribute.String("outcome", outcome))
	t.Metrics.HTTPRequestsTotal.Add(ctx, 1, attrs)
	t.Metrics.HTTPRequestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("method", method)))
}

// ObserveTokenRefresh records the outcome of one token-refresh attempt.
func (t *Telemetry) ObserveTokenRefresh(outcome string) {
	t.Metrics.TokenRefreshTotal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// ObservePropagationAttempt increments the propagation attempt counter.
func (t *Telemetry) ObservePropagationAttempt() {
	t.Metrics.PropagationAttemptsTotal.Add(context.Background(), 1)
}

// ObservePropagationDuration records total elapsed propagation wait time.
func (t *Telemetry) ObservePropagationDuration(elapsed time.Duration) {
	t.Metrics.PropagationDuration.Record(context.Background(), elapsed.Seconds())
}

// Shutdown stops the metrics HTTP server, the meter provider, and the
// tracer provider, for whichever of those were started.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.server != nil {
		if err := t.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if t.sdkMeterProvider != nil {
		if err := t.sdkMeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if t.sdkTracerProvider != nil {
		if err := t.sdkTracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("telemetry shutdown errors: %v", errs)
	}
	return nil
}
