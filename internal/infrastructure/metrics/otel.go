package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
)

// OTelConfig holds configuration for OpenTelemetry
type OTelConfig struct {
	URL            string
	Insecure       bool
	ServiceName    string
	Version        string
	ExportInterval time.Duration
}

// OTelRecorder pushes the same measurements as PrometheusRecorder to an
// OTLP collector.
type OTelRecorder struct {
	meterProvider *sdkmetric.MeterProvider

	refreshes       metric.Int64Counter
	refreshDuration metric.Float64Histogram
	snapshotTickets metric.Int64Gauge
	snapshotSamples metric.Int64Gauge
	lastRefresh     metric.Float64Gauge
	throttles       metric.Int64Counter
	throttleWait    metric.Float64Histogram
	accessDenied    metric.Int64Counter
}

// NewOTelRecorder creates a recorder exporting over OTLP/HTTP.
func NewOTelRecorder(ctx context.Context, cfg OTelConfig) (*OTelRecorder, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("otel collector URL is required")
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.URL),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.ExportInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.ExportInterval))
	}

	return newOTelRecorder(ctx, sdkmetric.NewPeriodicReader(exporter, readerOpts...), cfg.ServiceName, cfg.Version)
}

func newOTelRecorder(ctx context.Context, reader sdkmetric.Reader, serviceName, version string) (*OTelRecorder, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	meter := provider.Meter("github.com/lorrc/helpdesk-metrics")

	r := &OTelRecorder{meterProvider: provider}

	if r.refreshes, err = meter.Int64Counter("helpdesk_metrics.refresh",
		metric.WithDescription("Snapshot refresh cycles by outcome")); err != nil {
		return nil, fmt.Errorf("failed to create refresh counter: %w", err)
	}
	if r.refreshDuration, err = meter.Float64Histogram("helpdesk_metrics.refresh.duration",
		metric.WithDescription("Wall time of snapshot refresh cycles"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create refresh duration histogram: %w", err)
	}
	if r.snapshotTickets, err = meter.Int64Gauge("helpdesk_metrics.snapshot.tickets",
		metric.WithDescription("Tickets in the current snapshot")); err != nil {
		return nil, fmt.Errorf("failed to create snapshot tickets gauge: %w", err)
	}
	if r.snapshotSamples, err = meter.Int64Gauge("helpdesk_metrics.snapshot.duration_samples",
		metric.WithDescription("Duration samples in the current snapshot")); err != nil {
		return nil, fmt.Errorf("failed to create snapshot samples gauge: %w", err)
	}
	if r.lastRefresh, err = meter.Float64Gauge("helpdesk_metrics.snapshot.refreshed_timestamp",
		metric.WithDescription("Unix timestamp of the current snapshot"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create refreshed timestamp gauge: %w", err)
	}
	if r.throttles, err = meter.Int64Counter("helpdesk_metrics.upstream.throttles",
		metric.WithDescription("Rate-limited upstream responses")); err != nil {
		return nil, fmt.Errorf("failed to create throttle counter: %w", err)
	}
	if r.throttleWait, err = meter.Float64Histogram("helpdesk_metrics.upstream.throttle_wait",
		metric.WithDescription("Waits taken before retrying a throttled page"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create throttle wait histogram: %w", err)
	}
	if r.accessDenied, err = meter.Int64Counter("helpdesk_metrics.access.denied",
		metric.WithDescription("Requests rejected by the access guard")); err != nil {
		return nil, fmt.Errorf("failed to create access denied counter: %w", err)
	}

	return r, nil
}

func (o *OTelRecorder) RefreshCompleted(d time.Duration, err error) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("outcome", outcome(err)))
	o.refreshes.Add(ctx, 1, attrs)
	o.refreshDuration.Record(ctx, d.Seconds(), attrs)
}

func (o *OTelRecorder) SnapshotPublished(s *domain.Snapshot) {
	ctx := context.Background()
	o.snapshotTickets.Record(ctx, int64(len(s.AllTickets)), metric.WithAttributes(attribute.String("set", "all")))
	o.snapshotTickets.Record(ctx, int64(len(s.ClosedTickets)), metric.WithAttributes(attribute.String("set", "closed")))
	o.snapshotSamples.Record(ctx, int64(len(s.DurationSamples)))
	o.lastRefresh.Record(ctx, float64(s.RefreshedAt.Unix()))
}

func (o *OTelRecorder) UpstreamThrottled(res string, attempt int, wait time.Duration) {
	ctx := context.Background()
	o.throttles.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", res)))
	o.throttleWait.Record(ctx, wait.Seconds(), metric.WithAttributes(attribute.Int("attempt", attempt)))
}

func (o *OTelRecorder) AccessDenied() {
	o.accessDenied.Add(context.Background(), 1)
}

// Handler returns nil; OTLP is push-only.
func (o *OTelRecorder) Handler() http.Handler {
	return nil
}

// Close flushes pending measurements and shuts down the meter provider.
func (o *OTelRecorder) Close(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	if err := o.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
