package ports

import (
	"context"
	"iter"
	"time"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
)

// TicketSource walks an upstream ticket listing. The returned sequence is
// finite and single-use: it performs network I/O as it is ranged over and
// yields a non-nil error at most once, as its final element.
type TicketSource interface {
	FetchAll(ctx context.Context, filter string) iter.Seq2[domain.Ticket, error]
}

// Recorder receives operational measurements. Implementations must be safe
// for concurrent use.
type Recorder interface {
	// RefreshCompleted is called once per refresh cycle. err is nil on success.
	RefreshCompleted(duration time.Duration, err error)
	// SnapshotPublished is called after a new snapshot becomes current.
	SnapshotPublished(s *domain.Snapshot)
	// UpstreamThrottled is called before each rate-limit wait.
	UpstreamThrottled(resource string, attempt int, wait time.Duration)
	// AccessDenied is called for every rejected access token.
	AccessDenied()
}

// EventBroadcaster fans out real-time events to connected clients.
type EventBroadcaster interface {
	Broadcast(event domain.Event)
}
