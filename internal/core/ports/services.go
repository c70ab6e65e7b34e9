package ports

import (
	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
)

// SnapshotReader returns the currently published snapshot without blocking.
type SnapshotReader interface {
	Current() *domain.Snapshot
}

// TicketList is a list of tickets together with its length.
type TicketList struct {
	Tickets []domain.Ticket
	Count   int
}

// MetricsService answers every read query from the current snapshot.
// None of its methods perform network I/O.
type MetricsService interface {
	AllTickets() TicketList
	ClosedTickets() TicketList
	DurationTimes() map[string]float64
	AverageDuration() float64
	CustomFields() []domain.FlattenedFields
	CountBy(field string) map[string]int
	ValuesOf(field string) []string
	Status() domain.SnapshotStatus
}
