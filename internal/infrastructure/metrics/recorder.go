package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lorrc/helpdesk-metrics/internal/core/ports"
)

// Backends
const (
	BackendPrometheus = "prometheus"
	BackendOTel       = "otel"
	BackendNone       = "none"
)

// Recorder is a ports.Recorder with a lifecycle.
type Recorder interface {
	ports.Recorder

	// Handler exposes the metrics for scraping. It is nil for push backends.
	Handler() http.Handler

	// Close flushes and releases exporter resources.
	Close(ctx context.Context) error
}

// Config selects and configures a backend.
type Config struct {
	Backend        string
	ServiceName    string
	Version        string
	OTLPEndpoint   string
	OTLPInsecure   bool
	ExportInterval time.Duration
}

// New builds the recorder for cfg.Backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Recorder, error) {
	switch cfg.Backend {
	case BackendPrometheus, "":
		logger.Info("metrics backend initialized", "backend", BackendPrometheus)
		return NewPrometheusRecorder(cfg.ServiceName, cfg.Version), nil
	case BackendOTel:
		r, err := NewOTelRecorder(ctx, OTelConfig{
			URL:            cfg.OTLPEndpoint,
			Insecure:       cfg.OTLPInsecure,
			ServiceName:    cfg.ServiceName,
			Version:        cfg.Version,
			ExportInterval: cfg.ExportInterval,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("metrics backend initialized",
			"backend", BackendOTel,
			"url", cfg.OTLPEndpoint,
			"insecure", cfg.OTLPInsecure,
		)
		return r, nil
	case BackendNone:
		return NewNoopRecorder(), nil
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", cfg.Backend)
	}
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
