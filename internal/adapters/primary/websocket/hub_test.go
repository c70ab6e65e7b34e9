package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(hub, conn, DefaultClientConfig(), discardLogger()).Serve()
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	hub, _ := startHub(t)
	a := dial(t, hub)
	b := dial(t, hub)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	snap := &domain.Snapshot{
		AllTickets:    []domain.Ticket{{ID: "1"}, {ID: "2"}},
		ClosedTickets: []domain.Ticket{{ID: "1"}},
		RefreshedAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	hub.Broadcast(domain.NewSnapshotPublishedEvent(snap))

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var got struct {
			Type    string               `json:"type"`
			Payload domain.SnapshotEvent `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, string(domain.EventSnapshotPublished), got.Type)
		assert.Equal(t, 2, got.Payload.AllCount)
		assert.Equal(t, 1, got.Payload.ClosedCount)
		assert.True(t, snap.RefreshedAt.Equal(got.Payload.RefreshedAt))
	}
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub, _ := startHub(t)
	conn := dial(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := NewHub(discardLogger())
	slow := &Client{ID: "slow", Send: make(chan domain.Event)}
	fast := &Client{ID: "fast", Send: make(chan domain.Event, 1)}
	hub.registerClient(slow)
	hub.registerClient(fast)

	hub.broadcastEvent(domain.Event{Type: domain.EventSnapshotPublished})

	assert.Equal(t, 1, hub.ClientCount())
	_, open := <-slow.Send
	assert.False(t, open, "slow client's channel must be closed")
	ev := <-fast.Send
	assert.Equal(t, domain.EventSnapshotPublished, ev.Type)
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(discardLogger())

	done := make(chan struct{})
	go func() {
		for range broadcastBuffer * 2 {
			hub.Broadcast(domain.Event{Type: domain.EventSnapshotPublished})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked without a running hub")
	}
}

func TestHub_StopClosesClientsAndRejectsJoins(t *testing.T) {
	hub, cancel := startHub(t)
	c := &Client{ID: "c", Send: make(chan domain.Event, 1)}
	require.True(t, hub.Join(c))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	<-hub.done

	_, open := <-c.Send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientCount())
	assert.False(t, hub.Join(&Client{ID: "late", Send: make(chan domain.Event)}))

	// Leave after stop returns instead of blocking
	hub.Leave(c)
}
