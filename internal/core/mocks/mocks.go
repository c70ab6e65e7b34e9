package mocks

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
	"github.com/lorrc/helpdesk-metrics/internal/core/ports"
)

// MockTicketSource is a mock implementation of ports.TicketSource
type MockTicketSource struct {
	mock.Mock
}

var _ ports.TicketSource = (*MockTicketSource)(nil)

func NewMockTicketSource() *MockTicketSource {
	return &MockTicketSource{}
}

func (m *MockTicketSource) FetchAll(ctx context.Context, filter string) iter.Seq2[domain.Ticket, error] {
	args := m.Called(ctx, filter)
	return args.Get(0).(iter.Seq2[domain.Ticket, error])
}

// Seq yields tickets in order.
func Seq(tickets ...domain.Ticket) iter.Seq2[domain.Ticket, error] {
	return func(yield func(domain.Ticket, error) bool) {
		for _, t := range tickets {
			if !yield(t, nil) {
				return
			}
		}
	}
}

// FailingSeq yields tickets and then err.
func FailingSeq(err error, tickets ...domain.Ticket) iter.Seq2[domain.Ticket, error] {
	return func(yield func(domain.Ticket, error) bool) {
		for _, t := range tickets {
			if !yield(t, nil) {
				return
			}
		}
		yield(domain.Ticket{}, err)
	}
}

// BlockingSeq signals started, then waits for release before yielding tickets.
func BlockingSeq(started chan<- struct{}, release <-chan struct{}, tickets ...domain.Ticket) iter.Seq2[domain.Ticket, error] {
	return func(yield func(domain.Ticket, error) bool) {
		close(started)
		<-release
		for _, t := range tickets {
			if !yield(t, nil) {
				return
			}
		}
	}
}

// MockRecorder is a mock implementation of ports.Recorder
type MockRecorder struct {
	mock.Mock
}

var _ ports.Recorder = (*MockRecorder)(nil)

func NewMockRecorder() *MockRecorder {
	return &MockRecorder{}
}

func (m *MockRecorder) RefreshCompleted(duration time.Duration, err error) {
	m.Called(duration, err)
}

func (m *MockRecorder) SnapshotPublished(s *domain.Snapshot) {
	m.Called(s)
}

func (m *MockRecorder) UpstreamThrottled(resource string, attempt int, wait time.Duration) {
	m.Called(resource, attempt, wait)
}

func (m *MockRecorder) AccessDenied() {
	m.Called()
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

var _ ports.EventBroadcaster = (*MockEventBroadcaster)(nil)

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) {
	m.Called(event)
}

// StaticSnapshotReader serves a fixed snapshot that tests may swap.
type StaticSnapshotReader struct {
	mu   sync.RWMutex
	snap *domain.Snapshot
}

var _ ports.SnapshotReader = (*StaticSnapshotReader)(nil)

func NewStaticSnapshotReader(s *domain.Snapshot) *StaticSnapshotReader {
	return &StaticSnapshotReader{snap: s}
}

func (r *StaticSnapshotReader) Current() *domain.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snap == nil {
		return domain.EmptySnapshot()
	}
	return r.snap
}

func (r *StaticSnapshotReader) Set(s *domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap = s
}
