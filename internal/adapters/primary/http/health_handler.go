package http

import (
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
)

// SnapshotStatusProvider reports the state of the current snapshot.
type SnapshotStatusProvider interface {
	Status() domain.SnapshotStatus
}

// HealthHandler handles health check requests
type HealthHandler struct {
	snapshots  SnapshotStatusProvider
	staleAfter time.Duration
	clock      clockwork.Clock
	startTime  time.Time
	version    string
}

// NewHealthHandler creates a new health handler. A snapshot older than
// staleAfter is reported as degraded; zero disables the check.
func NewHealthHandler(snapshots SnapshotStatusProvider, staleAfter time.Duration, version string, clock clockwork.Clock) *HealthHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &HealthHandler{
		snapshots:  snapshots,
		staleAfter: staleAfter,
		clock:      clock,
		startTime:  clock.Now(),
		version:    version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Age     string `json:"age,omitempty"`
}

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HandleLiveness handles liveness probe requests (is the service running?)
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    statusHealthy,
		Timestamp: h.now(),
	})
}

// HandleReadiness reports not ready until the first snapshot is published.
// A failed refresh after that keeps the service ready on its previous
// snapshot.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	check := h.checkSnapshot()

	statusCode := http.StatusOK
	overall := statusHealthy
	if check.Status == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
		overall = statusUnhealthy
	}

	WriteJSON(w, statusCode, HealthResponse{
		Status:    overall,
		Timestamp: h.now(),
		Version:   h.version,
		Uptime:    h.uptime(),
		Checks:    map[string]Check{"snapshot": check},
	})
}

// HandleHealth handles detailed health check requests (for monitoring/debugging)
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	check := h.checkSnapshot()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := struct {
		HealthResponse
		Memory struct {
			Alloc      uint64 `json:"alloc_bytes"`
			TotalAlloc uint64 `json:"total_alloc_bytes"`
			Sys        uint64 `json:"sys_bytes"`
			NumGC      uint32 `json:"num_gc"`
		} `json:"memory"`
		Goroutines int `json:"goroutines"`
	}{
		HealthResponse: HealthResponse{
			Status:    check.Status,
			Timestamp: h.now(),
			Version:   h.version,
			Uptime:    h.uptime(),
			Checks:    map[string]Check{"snapshot": check},
		},
		Goroutines: runtime.NumGoroutine(),
	}
	response.Memory.Alloc = memStats.Alloc
	response.Memory.TotalAlloc = memStats.TotalAlloc
	response.Memory.Sys = memStats.Sys
	response.Memory.NumGC = memStats.NumGC

	statusCode := http.StatusOK
	if check.Status == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	WriteJSON(w, statusCode, response)
}

func (h *HealthHandler) checkSnapshot() Check {
	status := h.snapshots.Status()
	if !status.Ready {
		return Check{
			Status:  statusUnhealthy,
			Message: "no snapshot has been published yet",
		}
	}

	age := status.Age.Round(time.Second)
	if h.staleAfter > 0 && status.Age > h.staleAfter {
		return Check{
			Status:  statusDegraded,
			Message: "snapshot is older than " + h.staleAfter.String(),
			Age:     age.String(),
		}
	}
	return Check{Status: statusHealthy, Age: age.String()}
}

func (h *HealthHandler) now() string {
	return h.clock.Now().UTC().Format(time.RFC3339)
}

func (h *HealthHandler) uptime() string {
	return h.clock.Since(h.startTime).Round(time.Second).String()
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}
