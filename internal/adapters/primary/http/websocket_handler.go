package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	wsAdapter "github.com/lorrc/helpdesk-metrics/internal/adapters/primary/websocket"
)

// WebSocketHandler upgrades requests to the snapshot event feed. The access
// guard runs before it, so only authenticated requests reach the upgrade.
type WebSocketHandler struct {
	hub      *wsAdapter.Hub
	client   wsAdapter.ClientConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// WebSocketConfig holds configuration for the WebSocket handler
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	Client          wsAdapter.ClientConfig
	AllowAnyOrigin  bool
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *wsAdapter.Hub, cfg WebSocketConfig, logger *slog.Logger) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:    hub,
		client: cfg.Client,
		logger: logger,
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WebSocketHandler) makeOriginChecker(cfg WebSocketConfig) func(r *http.Request) bool {
	allowedOrigins := cfg.AllowedOrigins

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		if cfg.AllowAnyOrigin {
			h.logger.WarnContext(r.Context(), "allowing websocket connection in development mode",
				"origin", origin,
				"remote_addr", r.RemoteAddr,
			)
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.WarnContext(r.Context(), "failed to parse websocket origin",
				"origin", origin,
				"error", err,
			)
			return false
		}

		if originAllowed(parsedOrigin, allowedOrigins) {
			return true
		}

		h.logger.WarnContext(r.Context(), "websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
			"allowed_origins", allowedOrigins,
		)
		return false
	}
}

// originAllowed matches either a full origin ("https://app.example.com"), a
// bare host, or a wildcard subdomain ("*.example.com").
func originAllowed(origin *url.URL, allowed []string) bool {
	host := origin.Host
	full := origin.Scheme + "://" + origin.Host

	for _, a := range allowed {
		switch {
		case a == "*":
			return true
		case strings.HasPrefix(a, "*."):
			suffix := a[1:]
			if strings.HasSuffix(host, suffix) || host == a[2:] {
				return true
			}
		case a == full || a == host:
			return true
		}
	}
	return false
}

// ServeHTTP handles WebSocket connection requests
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		h.logger.WarnContext(r.Context(), "failed to upgrade websocket connection", "error", err)
		return
	}

	client := wsAdapter.NewClient(h.hub, conn, h.client, h.logger)
	h.logger.InfoContext(r.Context(), "websocket connection established",
		"client_id", client.ID,
		"remote_addr", r.RemoteAddr,
	)
	client.Serve()
}
