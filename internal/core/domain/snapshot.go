package domain

import "time"

// TicketIDField is the key under which the ticket id is stored in every
// FlattenedFields entry.
const TicketIDField = "ticket_id"

// FlattenedFields maps custom field names to values for one ticket, plus
// the ticket id under TicketIDField.
type FlattenedFields map[string]string

// Snapshot is the unit served to readers. It is built in full by one
// refresh cycle and never modified after publication.
type Snapshot struct {
	AllTickets      []Ticket
	ClosedTickets   []Ticket
	DurationSamples map[string]float64
	FlattenedFields []FlattenedFields
	RefreshedAt     time.Time
}

// EmptySnapshot is what readers see before the first successful refresh.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		AllTickets:      []Ticket{},
		ClosedTickets:   []Ticket{},
		DurationSamples: map[string]float64{},
		FlattenedFields: []FlattenedFields{},
	}
}

// IsZero reports whether the snapshot came from no refresh at all.
func (s *Snapshot) IsZero() bool {
	return s == nil || s.RefreshedAt.IsZero()
}

// SnapshotEvent announces the publication of a new snapshot.
type SnapshotEvent struct {
	RefreshedAt time.Time `json:"refreshed_at"`
	AllCount    int       `json:"all_count"`
	ClosedCount int       `json:"closed_count"`
	Samples     int       `json:"duration_samples"`
}

// NewSnapshotEvent summarizes s.
func NewSnapshotEvent(s *Snapshot) SnapshotEvent {
	return SnapshotEvent{
		RefreshedAt: s.RefreshedAt,
		AllCount:    len(s.AllTickets),
		ClosedCount: len(s.ClosedTickets),
		Samples:     len(s.DurationSamples),
	}
}
