package services

import (
	"sort"
	"time"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-metrics/internal/core/errors"
)

// ComputeDurations returns closedAt - createdAt in seconds for every ticket
// carrying both timestamps. Tickets missing either timestamp are skipped
// silently; tickets whose timestamps fail to parse, or whose closedAt
// precedes createdAt, are skipped and reported as *errors.ParseError.
func ComputeDurations(tickets []domain.Ticket) (map[string]float64, []error) {
	durations := make(map[string]float64, len(tickets))
	var skipped []error

	for _, t := range tickets {
		if t.CreatedAt == "" || t.ClosedAt == "" {
			continue
		}

		created, err := time.Parse(time.RFC3339, t.CreatedAt)
		if err != nil {
			skipped = append(skipped, &apperrors.ParseError{TicketID: t.ID, Field: "createdAt", Cause: err})
			continue
		}
		closed, err := time.Parse(time.RFC3339, t.ClosedAt)
		if err != nil {
			skipped = append(skipped, &apperrors.ParseError{TicketID: t.ID, Field: "closedAt", Cause: err})
			continue
		}

		d := closed.Sub(created)
		if d < 0 {
			skipped = append(skipped, &apperrors.ParseError{TicketID: t.ID, Cause: apperrors.ErrNegativeDuration})
			continue
		}
		durations[t.ID] = d.Seconds()
	}

	return durations, skipped
}

// FlattenCustomFields builds one FlattenedFields per ticket. Each entry starts
// with the ticket id; custom fields are then applied in order, so the last
// occurrence of a repeated name wins.
func FlattenCustomFields(tickets []domain.Ticket) []domain.FlattenedFields {
	out := make([]domain.FlattenedFields, 0, len(tickets))
	for _, t := range tickets {
		m := make(domain.FlattenedFields, len(t.CustomFields)+1)
		m[domain.TicketIDField] = t.ID
		for _, f := range t.CustomFields {
			m[f.Name] = f.Value
		}
		out = append(out, m)
	}
	return out
}

// GroupCount counts entries by their value for field. Entries where the
// field is absent or empty are not counted.
func GroupCount(fields []domain.FlattenedFields, field string) map[string]int {
	counts := make(map[string]int)
	for _, m := range fields {
		if v := m[field]; v != "" {
			counts[v]++
		}
	}
	return counts
}

// FieldValues lists the non-empty values of field in entry order.
func FieldValues(fields []domain.FlattenedFields, field string) []string {
	values := make([]string, 0)
	for _, m := range fields {
		if v := m[field]; v != "" {
			values = append(values, v)
		}
	}
	return values
}

// sortedValues returns the sample values in ascending order.
func sortedValues(samples map[string]float64) []float64 {
	values := make([]float64, 0, len(samples))
	for _, v := range samples {
		values = append(values, v)
	}
	sort.Float64s(values)
	return values
}
