package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
)

const namespace = "helpdesk_metrics"

// PrometheusRecorder keeps its own registry and serves it over HTTP.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	buildInfo       *prometheus.GaugeVec
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	snapshotTickets *prometheus.GaugeVec
	snapshotSamples prometheus.Gauge
	lastRefresh     prometheus.Gauge
	throttles       *prometheus.CounterVec
	throttleWait    prometheus.Histogram
	accessDenied    prometheus.Counter
}

// NewPrometheusRecorder creates a recorder with a fresh registry.
func NewPrometheusRecorder(serviceName, version string) *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	r := &PrometheusRecorder{
		registry: registry,

		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information for the service",
		}, []string{"service", "version"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Snapshot refresh cycles by outcome",
		}, []string{"outcome"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of snapshot refresh cycles, including throttle waits",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		snapshotTickets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_tickets",
			Help:      "Tickets in the current snapshot",
		}, []string{"set"}),
		snapshotSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_duration_samples",
			Help:      "Duration samples in the current snapshot",
		}),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_refreshed_timestamp_seconds",
			Help:      "Unix timestamp of the current snapshot",
		}),
		throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_throttles_total",
			Help:      "Rate-limited upstream responses",
		}, []string{"resource"}),
		throttleWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_throttle_wait_seconds",
			Help:      "Waits taken before retrying a throttled page",
			Buckets:   []float64{1, 2, 5, 10, 30, 60, 90, 120},
		}),
		accessDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_denied_total",
			Help:      "Requests rejected by the access guard",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.buildInfo,
		r.refreshes,
		r.refreshDuration,
		r.snapshotTickets,
		r.snapshotSamples,
		r.lastRefresh,
		r.throttles,
		r.throttleWait,
		r.accessDenied,
	)
	r.buildInfo.WithLabelValues(serviceName, version).Set(1)

	return r
}

func (r *PrometheusRecorder) RefreshCompleted(d time.Duration, err error) {
	r.refreshes.WithLabelValues(outcome(err)).Inc()
	r.refreshDuration.Observe(d.Seconds())
}

func (r *PrometheusRecorder) SnapshotPublished(s *domain.Snapshot) {
	r.snapshotTickets.WithLabelValues("all").Set(float64(len(s.AllTickets)))
	r.snapshotTickets.WithLabelValues("closed").Set(float64(len(s.ClosedTickets)))
	r.snapshotSamples.Set(float64(len(s.DurationSamples)))
	r.lastRefresh.Set(float64(s.RefreshedAt.Unix()))
}

func (r *PrometheusRecorder) UpstreamThrottled(resource string, _ int, wait time.Duration) {
	r.throttles.WithLabelValues(resource).Inc()
	r.throttleWait.Observe(wait.Seconds())
}

func (r *PrometheusRecorder) AccessDenied() {
	r.accessDenied.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *PrometheusRecorder) Close(context.Context) error {
	return nil
}
