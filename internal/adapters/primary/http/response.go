package http

import (
	"encoding/json"
	"net/http"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The header has already been sent; nothing useful to do on error.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes v with status 200
func WriteSuccess(w http.ResponseWriter, v any) {
	WriteJSON(w, http.StatusOK, v)
}

// CustomFieldResponse is the wire form of a custom field.
type CustomFieldResponse struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID           string                `json:"id"`
	Number       int64                 `json:"number,omitempty"`
	Subject      string                `json:"subject,omitempty"`
	Status       domain.TicketStatus   `json:"status"`
	CreatedAt    string                `json:"createdAt,omitempty"`
	ClosedAt     string                `json:"closedAt,omitempty"`
	CustomFields []CustomFieldResponse `json:"customFields"`
}

func toTicketResponse(t domain.Ticket) TicketResponse {
	fields := make([]CustomFieldResponse, len(t.CustomFields))
	for i, f := range t.CustomFields {
		fields[i] = CustomFieldResponse{Name: f.Name, Value: f.Value}
	}
	return TicketResponse{
		ID:           t.ID,
		Number:       t.Number,
		Subject:      t.Subject,
		Status:       t.Status,
		CreatedAt:    t.CreatedAt,
		ClosedAt:     t.ClosedAt,
		CustomFields: fields,
	}
}

func toTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, len(tickets))
	for i, t := range tickets {
		out[i] = toTicketResponse(t)
	}
	return out
}
