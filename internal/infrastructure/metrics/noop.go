package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
)

// NoopRecorder is a recorder that does nothing
// Used when metrics are disabled
type NoopRecorder struct{}

// NewNoopRecorder creates a new no-op recorder
func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) RefreshCompleted(time.Duration, error) {}

func (n *NoopRecorder) SnapshotPublished(*domain.Snapshot) {}

func (n *NoopRecorder) UpstreamThrottled(string, int, time.Duration) {}

func (n *NoopRecorder) AccessDenied() {}

func (n *NoopRecorder) Handler() http.Handler {
	return nil
}

func (n *NoopRecorder) Close(context.Context) error {
	return nil
}
