package services_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
	"github.com/lorrc/helpdesk-metrics/internal/core/mocks"
	"github.com/lorrc/helpdesk-metrics/internal/core/services"
)

func sampleSnapshot() *domain.Snapshot {
	all := []domain.Ticket{
		{ID: "a", Status: domain.StatusClosed},
		{ID: "b", Status: domain.StatusClosed},
		{ID: "c", Status: domain.StatusClosed},
		{ID: "d", Status: domain.StatusClosed},
		{ID: "e", Status: domain.StatusOpen},
	}
	return &domain.Snapshot{
		AllTickets:      all,
		ClosedTickets:   all[:4],
		DurationSamples: map[string]float64{"a": 10, "b": 12, "c": 11, "d": 1000},
		FlattenedFields: []domain.FlattenedFields{
			{domain.TicketIDField: "a", "Department": "IT", "Location": "HQ"},
			{domain.TicketIDField: "b", "Department": "IT"},
			{domain.TicketIDField: "c", "Department": "HR", "Location": "Depot"},
			{domain.TicketIDField: "d"},
			{domain.TicketIDField: "e", "Department": ""},
		},
		RefreshedAt: testEpoch,
	}
}

func TestMetricsService_Queries(t *testing.T) {
	reader := mocks.NewStaticSnapshotReader(sampleSnapshot())
	svc := services.NewMetricsService(reader, clockwork.NewFakeClockAt(testEpoch))

	all := svc.AllTickets()
	assert.Equal(t, 5, all.Count)
	assert.Len(t, all.Tickets, 5)

	closed := svc.ClosedTickets()
	assert.Equal(t, 4, closed.Count)

	assert.Len(t, svc.DurationTimes(), 4)
	assert.InDelta(t, 11.0, svc.AverageDuration(), 1e-9)

	assert.Len(t, svc.CustomFields(), 5)
	assert.Equal(t, map[string]int{"IT": 2, "HR": 1}, svc.CountBy("Department"))
	assert.Equal(t, []string{"HQ", "Depot"}, svc.ValuesOf("Location"))
	assert.Empty(t, svc.CountBy("Category"))
}

func TestMetricsService_EmptySnapshot(t *testing.T) {
	svc := services.NewMetricsService(mocks.NewStaticSnapshotReader(nil), nil)

	assert.Equal(t, 0, svc.AllTickets().Count)
	assert.NotNil(t, svc.AllTickets().Tickets)
	assert.Equal(t, 0, svc.ClosedTickets().Count)
	assert.Empty(t, svc.DurationTimes())
	assert.Equal(t, 0.0, svc.AverageDuration())
	assert.Empty(t, svc.CustomFields())
	assert.Empty(t, svc.CountBy("Department"))
	assert.Empty(t, svc.ValuesOf("Department"))

	status := svc.Status()
	assert.False(t, status.Ready)
	assert.Zero(t, status.Age)
}

func TestMetricsService_Status(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testEpoch)
	reader := mocks.NewStaticSnapshotReader(sampleSnapshot())
	svc := services.NewMetricsService(reader, clock)

	clock.Advance(90 * time.Second)
	status := svc.Status()

	assert.True(t, status.Ready)
	assert.Equal(t, testEpoch, status.RefreshedAt)
	assert.Equal(t, 90*time.Second, status.Age)
	assert.Equal(t, 5, status.AllCount)
	assert.Equal(t, 4, status.ClosedCount)
	assert.Equal(t, 4, status.Samples)
}

func TestMetricsService_FollowsPublishedSnapshot(t *testing.T) {
	reader := mocks.NewStaticSnapshotReader(nil)
	svc := services.NewMetricsService(reader, clockwork.NewFakeClockAt(testEpoch))

	assert.Equal(t, 0, svc.AllTickets().Count)

	reader.Set(sampleSnapshot())
	assert.Equal(t, 5, svc.AllTickets().Count)
	assert.True(t, svc.Status().Ready)
}
