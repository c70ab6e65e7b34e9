package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/lorrc/helpdesk-metrics/internal/adapters/primary/http"
	mw "github.com/lorrc/helpdesk-metrics/internal/adapters/primary/http/middleware"
	"github.com/lorrc/helpdesk-metrics/internal/adapters/primary/websocket"
	"github.com/lorrc/helpdesk-metrics/internal/adapters/secondary/helpscout"
	"github.com/lorrc/helpdesk-metrics/internal/auth"
	"github.com/lorrc/helpdesk-metrics/internal/config"
	"github.com/lorrc/helpdesk-metrics/internal/core/services"
	"github.com/lorrc/helpdesk-metrics/internal/infrastructure/logging"
	"github.com/lorrc/helpdesk-metrics/internal/infrastructure/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)
	logger.Debug("configuration loaded", "config", cfg.String())

	// Cancelled on shutdown; stops the refresh scheduler and the hub.
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Operational metrics
	recorder, err := metrics.New(ctx, metrics.Config{
		Backend:        cfg.Metrics.Backend,
		ServiceName:    cfg.App.Name,
		Version:        cfg.App.Version,
		OTLPEndpoint:   cfg.Metrics.OTLPEndpoint,
		OTLPInsecure:   cfg.Metrics.OTLPInsecure,
		ExportInterval: cfg.Metrics.ExportInterval,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	// 4. Upstream client. Rejected credentials are fatal and never retried.
	client := helpscout.NewClient(helpscout.Config{
		BaseURL:            cfg.Upstream.BaseURL,
		Timeout:            cfg.Upstream.Timeout,
		MaxThrottleRetries: cfg.Upstream.MaxThrottleRetries,
		DefaultRetryAfter:  cfg.Upstream.DefaultRetryAfter,
		Debug:              cfg.Logging.Level == "debug",
	}, logger, helpscout.WithRecorder(recorder))

	authCtx, authCancel := context.WithTimeout(ctx, cfg.Upstream.Timeout)
	err = client.Authenticate(authCtx, helpscout.Credentials{
		ClientID:     cfg.Upstream.ClientID,
		ClientSecret: cfg.Upstream.ClientSecret,
	})
	authCancel()
	if err != nil {
		logger.Error("upstream authentication failed", "error", err)
		os.Exit(1)
	}

	// 5. Real-time feed and snapshot cache
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	cache := services.NewSnapshotCache(client, logger,
		services.WithRecorder(recorder),
		services.WithBroadcaster(hub),
	)

	// A failed first refresh leaves the service up but not ready.
	if err := cache.Refresh(ctx); err != nil {
		logger.Warn("initial snapshot refresh failed, serving empty metrics until the next cycle", "error", err)
	}
	go cache.Run(ctx, cfg.Refresh.Interval)

	// 6. Access guard and rate limiting
	guard := auth.NewAccessGuard(cfg.Access.Secret,
		auth.WithWindow(cfg.Access.Window),
		auth.WithMaxSkew(cfg.Access.MaxSkew),
	)

	var rateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		defer rateLimiter.Stop()
	}

	// 7. Setup Router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:         logger,
		Version:        cfg.App.Version,
		Metrics:        services.NewMetricsService(cache, nil),
		Guard:          guard,
		Recorder:       recorder,
		Exposition:     recorder.Handler(),
		ExpositionPath: cfg.Metrics.Path,
		Hub:            hub,
		WebSocket: httpAdapter.WebSocketConfig{
			AllowedOrigins:  cfg.CORS.AllowedOrigins,
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			AllowAnyOrigin:  cfg.IsDevelopment(),
			Client: websocket.ClientConfig{
				PingInterval: cfg.WebSocket.PingInterval,
				PongWait:     cfg.WebSocket.PongWait,
			},
		},
		RateLimiter:    rateLimiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		StaleAfter:     3 * cfg.Refresh.Interval,
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	// Stops the scheduler, aborts any in-flight refresh and closes websocket clients.
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := recorder.Close(shutdownCtx); err != nil {
		logger.Error("metrics shutdown error", "error", err)
	}

	logger.Info("server shutdown complete")
}
