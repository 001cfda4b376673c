package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mmuslimabdulj/chat2k/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Outbound frames buffered per connection before frames are dropped
	sendBufferSize = 256
)

// EventHandler consumes the inbound events of one connection, one at a time
type EventHandler interface {
	Context() context.Context
	Identify(ctx context.Context, userID string) error
	Submit(ctx context.Context, payload domain.SubmitPayload) error
	Disconnect()
}

// Client represents a single websocket connection
type Client struct {
	id             string
	conn           *websocket.Conn
	send           chan []byte
	done           chan struct{}
	closeOnce      sync.Once
	maxMessageSize int64
	logger         *slog.Logger
}

// NewClient creates a new Client with a fresh connection id
func NewClient(conn *websocket.Conn, maxMessageSize int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if maxMessageSize <= 0 {
		maxMessageSize = domain.MaxMessageSize
	}
	return &Client{
		id:             uuid.New().String(),
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		done:           make(chan struct{}),
		maxMessageSize: int64(maxMessageSize),
		logger:         logger,
	}
}

// ID returns the connection id
func (c *Client) ID() string {
	return c.id
}

// Send adds a message to the client's send queue. It never blocks; frames
// for a full or closed client are dropped.
func (c *Client) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close stops the write pump. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// ReadPump pumps events from the websocket connection to h. Each event is
// fully handled before the next frame is read, so one connection's messages
// are persisted and broadcast in the order they were sent.
func (c *Client) ReadPump(h EventHandler) {
	defer func() {
		h.Disconnect()
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("connection closed unexpectedly", "conn", c.id, "error", err)
			}
			return
		}
		c.dispatch(h, message)
	}
}

// dispatch decodes one frame and routes it by event type
func (c *Client) dispatch(h EventHandler, message []byte) {
	var ev domain.Event
	if err := json.Unmarshal(message, &ev); err != nil {
		c.logger.Debug("malformed frame", "conn", c.id, "error", err)
		return
	}

	ctx := h.Context()
	switch ev.Type {
	case domain.EventIAmHere:
		userID, err := domain.IdentityFromPayload(ev.Payload)
		if err != nil {
			c.logger.Debug("malformed identification", "conn", c.id, "error", err)
			return
		}
		if err := h.Identify(ctx, userID); err != nil {
			c.logger.Debug("identification failed", "conn", c.id, "kind", domain.KindOf(err))
		}

	case domain.EventMessage:
		var payload domain.SubmitPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			c.logger.Debug("malformed message", "conn", c.id, "error", err)
			return
		}
		if err := h.Submit(ctx, payload); err != nil {
			c.logger.Debug("submission rejected", "conn", c.id, "kind", domain.KindOf(err))
		}

	default:
		c.logger.Debug("unknown event", "conn", c.id, "type", ev.Type)
	}
}

// WritePump pumps messages from the send queue to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
