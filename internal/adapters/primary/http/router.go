package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	mw "github.com/lorrc/helpdesk-metrics/internal/adapters/primary/http/middleware"
	wsAdapter "github.com/lorrc/helpdesk-metrics/internal/adapters/primary/websocket"
	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
	"github.com/lorrc/helpdesk-metrics/internal/core/ports"
)

// RouterConfig collects everything the HTTP surface is built from.
type RouterConfig struct {
	Logger  *slog.Logger
	Version string

	Metrics    ports.MetricsService
	Dimensions []domain.Dimension

	// Guard validates access tokens on every /api/v1 route.
	Guard    mw.TokenValidator
	Recorder ports.Recorder

	// Exposition serves operational metrics at ExpositionPath when non-nil.
	Exposition     http.Handler
	ExpositionPath string

	Hub       *wsAdapter.Hub
	WebSocket WebSocketConfig

	// RateLimiter is optional.
	RateLimiter    *mw.RateLimiter
	AllowedOrigins []string

	// StaleAfter marks /health degraded once the snapshot is older.
	StaleAfter time.Duration
}

// NewRouter builds the chi router serving health probes, operational
// metrics and the guarded /api/v1 surface.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	errorHandler := NewErrorHandler(logger)
	metricsHandler := NewMetricsHandler(cfg.Metrics, cfg.Dimensions)
	healthHandler := NewHealthHandler(cfg.Metrics, cfg.StaleAfter, cfg.Version, nil)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders: []string{mw.RequestIDHeader},
		MaxAge:         300,
	}))

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	r.NotFound(errorHandler.NotFound)

	// Probe paths stay outside /api/v1 and are never guarded.
	healthHandler.RegisterRoutes(r)

	if cfg.Exposition != nil {
		path := cfg.ExpositionPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, cfg.Exposition)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.AccessGuard(cfg.Guard, cfg.Recorder, logger))

		r.Route("/metrics", metricsHandler.RegisterRoutes)

		if cfg.Hub != nil {
			r.Get("/ws", NewWebSocketHandler(cfg.Hub, cfg.WebSocket, logger).ServeHTTP)
		}
	})

	return r
}
