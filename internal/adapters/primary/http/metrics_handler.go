package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
	"github.com/lorrc/helpdesk-metrics/internal/core/ports"
)

// MetricsHandler serves the read-query surface. Every response is computed
// from the snapshot current at the time of the call; no handler triggers
// an upstream fetch.
type MetricsHandler struct {
	svc        ports.MetricsService
	dimensions []domain.Dimension
}

// NewMetricsHandler creates a metrics handler for the given dimensions.
// A nil dimensions slice selects domain.DefaultDimensions.
func NewMetricsHandler(svc ports.MetricsService, dimensions []domain.Dimension) *MetricsHandler {
	if dimensions == nil {
		dimensions = domain.DefaultDimensions
	}
	return &MetricsHandler{svc: svc, dimensions: dimensions}
}

// RegisterRoutes registers all metrics routes on r.
func (h *MetricsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/all-tickets", h.HandleAllTickets)
	r.Get("/closed-tickets", h.HandleClosedTickets)
	r.Get("/average-ticket-duration", h.HandleAverageDuration)
	r.Get("/tickets-duration-times", h.HandleDurationTimes)
	r.Get("/custom-fields", h.HandleCustomFields)
	r.Get("/snapshot", h.HandleSnapshot)

	for _, d := range h.dimensions {
		r.Get("/tickets-by-"+d.Slug, h.countHandler(d))
		r.Get(d.ListPath, h.valuesHandler(d))
	}
}

func (h *MetricsHandler) HandleAllTickets(w http.ResponseWriter, r *http.Request) {
	list := h.svc.AllTickets()
	WriteSuccess(w, map[string]any{
		"all_tickets": toTicketResponses(list.Tickets),
		"count":       list.Count,
	})
}

func (h *MetricsHandler) HandleClosedTickets(w http.ResponseWriter, r *http.Request) {
	list := h.svc.ClosedTickets()
	WriteSuccess(w, map[string]any{
		"closed_tickets": toTicketResponses(list.Tickets),
		"count":          list.Count,
	})
}

// HandleAverageDuration returns the mean closed-ticket duration in seconds
// with outliers removed, or 0 when there are no samples.
func (h *MetricsHandler) HandleAverageDuration(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]float64{
		"average_ticket_duration": h.svc.AverageDuration(),
	})
}

func (h *MetricsHandler) HandleDurationTimes(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]map[string]float64{
		"ticket_durations": h.svc.DurationTimes(),
	})
}

func (h *MetricsHandler) HandleCustomFields(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string][]domain.FlattenedFields{
		"custom_fields": h.svc.CustomFields(),
	})
}

// SnapshotResponse describes the snapshot that answered the other routes.
type SnapshotResponse struct {
	Ready           bool       `json:"ready"`
	RefreshedAt     *time.Time `json:"refreshed_at"`
	AgeSeconds      float64    `json:"age_seconds"`
	AllCount        int        `json:"all_count"`
	ClosedCount     int        `json:"closed_count"`
	DurationSamples int        `json:"duration_samples"`
}

func (h *MetricsHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, toSnapshotResponse(h.svc.Status()))
}

func toSnapshotResponse(s domain.SnapshotStatus) SnapshotResponse {
	resp := SnapshotResponse{
		Ready:           s.Ready,
		AgeSeconds:      s.Age.Seconds(),
		AllCount:        s.AllCount,
		ClosedCount:     s.ClosedCount,
		DurationSamples: s.Samples,
	}
	if s.Ready {
		at := s.RefreshedAt.UTC()
		resp.RefreshedAt = &at
	}
	return resp
}

func (h *MetricsHandler) countHandler(d domain.Dimension) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteSuccess(w, map[string]map[string]int{
			d.CountKey: h.svc.CountBy(d.Field),
		})
	}
}

func (h *MetricsHandler) valuesHandler(d domain.Dimension) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteSuccess(w, map[string][]string{
			d.ListKey: h.svc.ValuesOf(d.Field),
		})
	}
}
