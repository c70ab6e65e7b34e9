package services

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
	"github.com/lorrc/helpdesk-metrics/internal/core/ports"
	"github.com/lorrc/helpdesk-metrics/internal/infrastructure/logging"
)

// DefaultRefreshInterval is the pause between the end of one refresh cycle
// and the start of the next.
const DefaultRefreshInterval = 10 * time.Minute

// SnapshotCache owns the current snapshot. A single refresher builds each
// new snapshot privately and publishes it with one atomic pointer swap, so
// readers never lock and never observe a partially built snapshot.
type SnapshotCache struct {
	source      ports.TicketSource
	recorder    ports.Recorder
	broadcaster ports.EventBroadcaster
	clock       clockwork.Clock
	logger      *slog.Logger

	current atomic.Pointer[domain.Snapshot]
	empty   *domain.Snapshot

	// refreshMu serializes refresh cycles. Readers never take it.
	refreshMu sync.Mutex
}

var _ ports.SnapshotReader = (*SnapshotCache)(nil)

// CacheOption configures a SnapshotCache.
type CacheOption func(*SnapshotCache)

// WithRecorder sets the metrics recorder.
func WithRecorder(r ports.Recorder) CacheOption {
	return func(c *SnapshotCache) { c.recorder = r }
}

// WithBroadcaster publishes an event after every successful refresh.
func WithBroadcaster(b ports.EventBroadcaster) CacheOption {
	return func(c *SnapshotCache) { c.broadcaster = b }
}

// WithClock replaces the wall clock, for tests.
func WithClock(clock clockwork.Clock) CacheOption {
	return func(c *SnapshotCache) { c.clock = clock }
}

// NewSnapshotCache creates a cache in the Stale state.
func NewSnapshotCache(source ports.TicketSource, logger *slog.Logger, opts ...CacheOption) *SnapshotCache {
	c := &SnapshotCache{
		source:   source,
		recorder: nopRecorder{},
		clock:    clockwork.NewRealClock(),
		logger:   logger.With("component", "snapshot_cache"),
		empty:    domain.EmptySnapshot(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns the latest published snapshot, or an empty one while the
// cache is still Stale. It never blocks.
func (c *SnapshotCache) Current() *domain.Snapshot {
	if s := c.current.Load(); s != nil {
		return s
	}
	return c.empty
}

// Ready reports whether at least one refresh has succeeded.
func (c *SnapshotCache) Ready() bool {
	return c.current.Load() != nil
}

// Refresh runs one full cycle: fetch all and closed tickets, derive metrics,
// and publish a new snapshot. On failure the previous snapshot stays current
// and the error is logged and returned to the caller.
func (c *SnapshotCache) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	ctx = logging.WithCycleID(ctx, uuid.NewString())
	start := c.clock.Now()
	c.logger.InfoContext(ctx, "snapshot refresh started")

	snap, err := c.build(ctx)
	elapsed := c.clock.Since(start)
	c.recorder.RefreshCompleted(elapsed, err)
	if err != nil {
		c.logger.ErrorContext(ctx, "snapshot refresh failed, keeping previous snapshot",
			"error", err,
			"duration_ms", elapsed.Milliseconds(),
			"ready", c.Ready(),
		)
		return err
	}

	c.current.Store(snap)
	c.recorder.SnapshotPublished(snap)
	if c.broadcaster != nil {
		c.broadcaster.Broadcast(domain.NewSnapshotPublishedEvent(snap))
	}

	c.logger.InfoContext(ctx, "snapshot published",
		"all_tickets", len(snap.AllTickets),
		"closed_tickets", len(snap.ClosedTickets),
		"duration_samples", len(snap.DurationSamples),
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}

// Run refreshes every interval until ctx is cancelled. The interval is
// measured from the end of the previous cycle, so cycles never overlap.
// The initial refresh is the caller's responsibility.
func (c *SnapshotCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "refresh scheduler stopped")
			return
		case <-c.clock.After(interval):
		}
		_ = c.Refresh(ctx)
	}
}

func (c *SnapshotCache) build(ctx context.Context) (*domain.Snapshot, error) {
	all, err := CollectTickets(c.source.FetchAll(ctx, domain.FilterAll))
	if err != nil {
		return nil, err
	}
	closed, err := CollectTickets(c.source.FetchAll(ctx, domain.FilterClosed))
	if err != nil {
		return nil, err
	}

	durations, skipped := ComputeDurations(closed)
	for _, e := range skipped {
		c.logger.WarnContext(ctx, "ticket excluded from duration metrics", "error", e)
	}

	return &domain.Snapshot{
		AllTickets:      all,
		ClosedTickets:   closed,
		DurationSamples: durations,
		FlattenedFields: FlattenCustomFields(all),
		RefreshedAt:     c.clock.Now().UTC(),
	}, nil
}

// CollectTickets drains seq into a slice. Any error aborts collection and
// no partial result is returned.
func CollectTickets(seq iter.Seq2[domain.Ticket, error]) ([]domain.Ticket, error) {
	tickets := make([]domain.Ticket, 0)
	for t, err := range seq {
		if err != nil {
			return nil, fmt.Errorf("collect tickets: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

type nopRecorder struct{}

func (nopRecorder) RefreshCompleted(time.Duration, error) {}
func (nopRecorder) SnapshotPublished(*domain.Snapshot) {}
func (nopRecorder) UpstreamThrottled(string, int, time.Duration) {}
func (nopRecorder) AccessDenied() {}
