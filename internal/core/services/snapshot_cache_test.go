package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-metrics/internal/core/errors"
	"github.com/lorrc/helpdesk-metrics/internal/core/mocks"
	"github.com/lorrc/helpdesk-metrics/internal/core/services"
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func closedTicket(id, created, closed string, fields ...domain.CustomField) domain.Ticket {
	return domain.Ticket{
		ID:           id,
		Status:       domain.StatusClosed,
		CreatedAt:    created,
		ClosedAt:     closed,
		CustomFields: fields,
	}
}

func TestSnapshotCache_StaleBeforeFirstRefresh(t *testing.T) {
	source := mocks.NewMockTicketSource()
	cache := services.NewSnapshotCache(source, discardLogger())

	snap := cache.Current()
	assert.False(t, cache.Ready())
	assert.True(t, snap.IsZero())
	assert.Empty(t, snap.AllTickets)
	assert.Empty(t, snap.ClosedTickets)
	assert.Empty(t, snap.DurationSamples)
	assert.Empty(t, snap.FlattenedFields)
	source.AssertNotCalled(t, "FetchAll", mock.Anything, mock.Anything)
}

func TestSnapshotCache_RefreshPublishes(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testEpoch)
	source := mocks.NewMockTicketSource()
	recorder := mocks.NewMockRecorder()
	broadcaster := mocks.NewMockEventBroadcaster()

	open := domain.Ticket{ID: "1", Status: domain.StatusOpen, CustomFields: []domain.CustomField{{Name: "Department", Value: "IT"}}}
	closed := closedTicket("2", "2024-01-01T10:00:00Z", "2024-01-01T10:01:00Z", domain.CustomField{Name: "Department", Value: "HR"})
	broken := closedTicket("3", "not-a-time", "2024-01-01T10:01:00Z")

	source.On("FetchAll", mock.Anything, domain.FilterAll).Return(mocks.Seq(open, closed, broken))
	source.On("FetchAll", mock.Anything, domain.FilterClosed).Return(mocks.Seq(closed, broken))
	recorder.On("RefreshCompleted", mock.Anything, nil).Once()
	recorder.On("SnapshotPublished", mock.Anything).Once()
	broadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
		payload, ok := e.Payload.(domain.SnapshotEvent)
		return ok && e.Type == domain.EventSnapshotPublished && payload.AllCount == 3 && payload.ClosedCount == 2
	})).Once()

	cache := services.NewSnapshotCache(source, discardLogger(),
		services.WithClock(clock),
		services.WithRecorder(recorder),
		services.WithBroadcaster(broadcaster),
	)

	require.NoError(t, cache.Refresh(context.Background()))

	snap := cache.Current()
	assert.True(t, cache.Ready())
	assert.Len(t, snap.AllTickets, 3)
	assert.Len(t, snap.ClosedTickets, 2)
	assert.Equal(t, map[string]float64{"2": 60}, snap.DurationSamples)
	assert.Equal(t, testEpoch, snap.RefreshedAt)
	require.Len(t, snap.FlattenedFields, 3)
	assert.Equal(t, "IT", snap.FlattenedFields[0]["Department"])

	source.AssertExpectations(t)
	recorder.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestSnapshotCache_FailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testEpoch)
	source := mocks.NewMockTicketSource()
	recorder := mocks.NewMockRecorder()

	ticket := closedTicket("1", "2024-01-01T10:00:00Z", "2024-01-01T11:00:00Z")
	fetchErr := &apperrors.FetchError{Resource: "conversations", PagesFetched: 2, Cause: errors.New("connection reset")}

	source.On("FetchAll", mock.Anything, domain.FilterAll).Return(mocks.Seq(ticket)).Once()
	source.On("FetchAll", mock.Anything, domain.FilterClosed).Return(mocks.Seq(ticket)).Once()
	source.On("FetchAll", mock.Anything, domain.FilterAll).Return(mocks.FailingSeq(fetchErr, ticket)).Once()
	recorder.On("RefreshCompleted", mock.Anything, mock.Anything).Twice()
	recorder.On("SnapshotPublished", mock.Anything).Once()

	cache := services.NewSnapshotCache(source, discardLogger(),
		services.WithClock(clock),
		services.WithRecorder(recorder),
	)

	require.NoError(t, cache.Refresh(context.Background()))
	before := cache.Current()

	clock.Advance(10 * time.Minute)
	err := cache.Refresh(context.Background())

	require.Error(t, err)
	var target *apperrors.FetchError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 2, target.PagesFetched)

	after := cache.Current()
	assert.Same(t, before, after)
	assert.Equal(t, testEpoch, after.RefreshedAt)
	assert.Len(t, after.AllTickets, 1)

	source.AssertExpectations(t)
	recorder.AssertExpectations(t)
	recorder.AssertNumberOfCalls(t, "SnapshotPublished", 1)
}

func TestSnapshotCache_FailedFirstRefreshStaysStale(t *testing.T) {
	source := mocks.NewMockTicketSource()
	source.On("FetchAll", mock.Anything, domain.FilterAll).
		Return(mocks.FailingSeq(&apperrors.FetchError{Resource: "conversations", Cause: errors.New("boom")}))

	cache := services.NewSnapshotCache(source, discardLogger())

	require.Error(t, cache.Refresh(context.Background()))
	assert.False(t, cache.Ready())
	assert.True(t, cache.Current().IsZero())
	source.AssertNotCalled(t, "FetchAll", mock.Anything, domain.FilterClosed)
}

func TestSnapshotCache_ReadersSeePreviousSnapshotDuringRefresh(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testEpoch)
	source := mocks.NewMockTicketSource()

	first := closedTicket("1", "2024-01-01T10:00:00Z", "2024-01-01T10:00:10Z")
	second := closedTicket("2", "2024-01-01T10:00:00Z", "2024-01-01T10:00:20Z")
	started := make(chan struct{})
	release := make(chan struct{})

	source.On("FetchAll", mock.Anything, domain.FilterAll).Return(mocks.Seq(first)).Once()
	source.On("FetchAll", mock.Anything, domain.FilterClosed).Return(mocks.Seq(first)).Once()
	source.On("FetchAll", mock.Anything, domain.FilterAll).Return(mocks.BlockingSeq(started, release, first, second)).Once()
	source.On("FetchAll", mock.Anything, domain.FilterClosed).Return(mocks.Seq(first, second)).Once()

	cache := services.NewSnapshotCache(source, discardLogger(), services.WithClock(clock))
	require.NoError(t, cache.Refresh(context.Background()))
	old := cache.Current()

	done := make(chan error, 1)
	go func() { done <- cache.Refresh(context.Background()) }()

	<-started
	// The refresh is mid-fetch; readers must not block or see partial data.
	snap := cache.Current()
	assert.Same(t, old, snap)
	assert.Len(t, snap.AllTickets, 1)
	assert.Equal(t, map[string]float64{"1": 10}, snap.DurationSamples)

	close(release)
	require.NoError(t, <-done)

	fresh := cache.Current()
	assert.NotSame(t, old, fresh)
	assert.Len(t, fresh.AllTickets, 2)
	assert.Equal(t, map[string]float64{"1": 10, "2": 20}, fresh.DurationSamples)
	source.AssertExpectations(t)
}

func TestSnapshotCache_RunRefreshesAfterInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testEpoch)
	source := mocks.NewMockTicketSource()
	source.On("FetchAll", mock.Anything, mock.Anything).Return(mocks.Seq(domain.Ticket{ID: "1"}))

	cache := services.NewSnapshotCache(source, discardLogger(), services.WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		cache.Run(ctx, time.Minute)
		close(stopped)
	}()

	clock.BlockUntil(1)
	assert.False(t, cache.Ready(), "Run must not refresh before the first interval elapses")

	clock.Advance(time.Minute)
	require.Eventually(t, cache.Ready, time.Second, 5*time.Millisecond)

	// The next wait starts only once the cycle has finished.
	clock.BlockUntil(1)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
	source.AssertNumberOfCalls(t, "FetchAll", 2)
}

func TestCollectTickets(t *testing.T) {
	tickets, err := services.CollectTickets(mocks.Seq(domain.Ticket{ID: "a"}, domain.Ticket{ID: "b"}))
	require.NoError(t, err)
	assert.Len(t, tickets, 2)

	empty, err := services.CollectTickets(mocks.Seq())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	cause := errors.New("boom")
	partial, err := services.CollectTickets(mocks.FailingSeq(cause, domain.Ticket{ID: "a"}))
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, partial)
}
