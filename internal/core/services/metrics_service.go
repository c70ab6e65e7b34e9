package services

import (
	"github.com/jonboulle/clockwork"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
	"github.com/lorrc/helpdesk-metrics/internal/core/ports"
)

// MetricsService implements the read-query surface. Each call reads the
// current snapshot once, so a single response is always computed from one
// refresh cycle.
type MetricsService struct {
	reader ports.SnapshotReader
	clock  clockwork.Clock
}

var _ ports.MetricsService = (*MetricsService)(nil)

// NewMetricsService creates a metrics service over reader.
func NewMetricsService(reader ports.SnapshotReader, clock clockwork.Clock) ports.MetricsService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MetricsService{reader: reader, clock: clock}
}

func (s *MetricsService) AllTickets() ports.TicketList {
	tickets := s.reader.Current().AllTickets
	return ports.TicketList{Tickets: tickets, Count: len(tickets)}
}

func (s *MetricsService) ClosedTickets() ports.TicketList {
	tickets := s.reader.Current().ClosedTickets
	return ports.TicketList{Tickets: tickets, Count: len(tickets)}
}

// DurationTimes returns the raw per-ticket durations in seconds.
func (s *MetricsService) DurationTimes() map[string]float64 {
	return s.reader.Current().DurationSamples
}

// AverageDuration returns the mean duration in seconds after outlier removal.
func (s *MetricsService) AverageDuration() float64 {
	return Average(FilterOutliers(s.reader.Current().DurationSamples))
}

func (s *MetricsService) CustomFields() []domain.FlattenedFields {
	return s.reader.Current().FlattenedFields
}

func (s *MetricsService) CountBy(field string) map[string]int {
	return GroupCount(s.reader.Current().FlattenedFields, field)
}

func (s *MetricsService) ValuesOf(field string) []string {
	return FieldValues(s.reader.Current().FlattenedFields, field)
}

func (s *MetricsService) Status() domain.SnapshotStatus {
	snap := s.reader.Current()
	status := domain.SnapshotStatus{
		Ready:       !snap.IsZero(),
		RefreshedAt: snap.RefreshedAt,
		AllCount:    len(snap.AllTickets),
		ClosedCount: len(snap.ClosedTickets),
		Samples:     len(snap.DurationSamples),
	}
	if status.Ready {
		status.Age = s.clock.Since(snap.RefreshedAt)
	}
	return status
}
