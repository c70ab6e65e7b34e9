package domain

import "strings"

// TicketStatus is the normalized lifecycle state of an upstream conversation.
type TicketStatus string

const (
	StatusOpen   TicketStatus = "open"
	StatusClosed TicketStatus = "closed"
	StatusOther  TicketStatus = "other"
)

// Listing filters accepted by the upstream conversations endpoint.
const (
	FilterAll    = "all"
	FilterClosed = "closed"
)

// ParseTicketStatus maps an upstream status string onto the three states
// tracked here. Unknown values are reported as StatusOther.
func ParseTicketStatus(raw string) TicketStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "closed":
		return StatusClosed
	case "active", "open", "pending":
		return StatusOpen
	default:
		return StatusOther
	}
}

// CustomField is a single name/value pair attached to a ticket. Names are
// not unique within a ticket.
type CustomField struct {
	Name  string
	Value string
}

// Ticket is an immutable record fetched from upstream. CreatedAt and
// ClosedAt hold the raw ISO-8601 strings; an empty string means absent.
type Ticket struct {
	ID           string
	Number       int64
	Subject      string
	Status       TicketStatus
	CreatedAt    string
	ClosedAt     string
	CustomFields []CustomField
}

// IsClosed reports whether the ticket is in the closed state.
func (t Ticket) IsClosed() bool {
	return t.Status == StatusClosed
}
