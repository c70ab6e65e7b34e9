package helpscout

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestThrottleWait(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	client := NewClient(Config{DefaultRetryAfter: 60 * time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(clockwork.NewFakeClockAt(now)),
		WithJitter(func() time.Duration { return 500 * time.Millisecond }),
	)

	tests := []struct {
		name       string
		retryAfter string
		attempt    int
		want       time.Duration
	}{
		{"first throttle adds only jitter", "2", 1, 2500 * time.Millisecond},
		{"second throttle adds one second", "2", 2, 3500 * time.Millisecond},
		{"third throttle adds three seconds", "2", 3, 5500 * time.Millisecond},
		{"fourth throttle adds seven seconds", "2", 4, 9500 * time.Millisecond},
		{"missing header uses default", "", 1, 60500 * time.Millisecond},
		{"garbage header uses default", "soon", 1, 60500 * time.Millisecond},
		{"negative header uses default", "-3", 1, 60500 * time.Millisecond},
		{"http date in the future", now.Add(10 * time.Second).Format(http.TimeFormat), 1, 10500 * time.Millisecond},
		{"http date in the past", now.Add(-time.Minute).Format(http.TimeFormat), 1, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.throttleWait(tt.retryAfter, tt.attempt))
		})
	}
}

func TestRandomJitterRange(t *testing.T) {
	for range 1000 {
		j := randomJitter()
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, time.Second)
	}
}

func TestFlexStringDecoding(t *testing.T) {
	tests := []struct {
		in   string
		want flexString
	}{
		{`"abc"`, "abc"},
		{`123`, "123"},
		{`null`, ""},
		{`12.5`, "12.5"},
	}
	for _, tt := range tests {
		var got flexString
		assert.NoError(t, got.UnmarshalJSON([]byte(tt.in)), tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
