package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer. The feed is read-only, so
	// anything beyond a close frame is discarded.
	maxMessageSize = 512

	sendBuffer = 8
)

// ClientConfig holds keepalive settings. PingInterval must be less than
// PongWait.
type ClientConfig struct {
	PingInterval time.Duration
	PongWait     time.Duration
}

// DefaultClientConfig returns the keepalive settings used when none are configured.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval: 54 * time.Second,
		PongWait:     60 * time.Second,
	}
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	ID string

	hub  *Hub
	conn *websocket.Conn
	cfg  ClientConfig

	// Send is the buffered channel of outbound events.
	Send chan domain.Event

	// closeOnce ensures the Send channel is only closed once
	closeOnce sync.Once

	logger *slog.Logger
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, cfg ClientConfig, logger *slog.Logger) *Client {
	if cfg.PongWait <= 0 || cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongWait {
		cfg = DefaultClientConfig()
	}
	id := uuid.NewString()
	return &Client{
		ID:     id,
		hub:    hub,
		conn:   conn,
		cfg:    cfg,
		Send:   make(chan domain.Event, sendBuffer),
		logger: logger.With("client_id", id),
	}
}

// CloseSend safely closes the Send channel exactly once
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

// Serve registers the client and starts its pumps. It returns immediately.
func (c *Client) Serve() {
	if !c.hub.Join(c) {
		_ = c.conn.Close()
		return
	}
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump drains the connection so control frames are processed and a
// closed peer is noticed. It runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}
	}
}

// WritePump pumps events from the hub to the websocket connection.
// It runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeJSON(event); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

func (c *Client) writeJSON(event domain.Event) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}
