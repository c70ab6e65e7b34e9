package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventSnapshotPublished EventType = "SNAPSHOT_PUBLISHED"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}

// NewSnapshotPublishedEvent wraps a snapshot summary for broadcast.
func NewSnapshotPublishedEvent(s *Snapshot) Event {
	return Event{Type: EventSnapshotPublished, Payload: NewSnapshotEvent(s)}
}
