/*
Package notify contains the browser notification stream.

This file defines the Client struct, representing one active stream connection.
It manages the connection lifecycle: the write pump draining queued events with
heartbeat pings, and the read pump that only watches for pongs and closure.
The stream is best-effort; events that cannot be queued are dropped rather than
blocking state mutation.
*/
package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rowboatweb/internal/app/state"
	"rowboatweb/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	// The stream is one-way; browsers send nothing but control frames.
	maxMessageSize = 512

	// sendQueueSize is the buffer size of the per-client event queue.
	sendQueueSize = 32
)

// Client represents one active notification stream connection.
type Client struct {
	// ID uniquely identifies the connection for log context and registry keys.
	ID string

	// hub is the owning registry.
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// send is a buffered channel queuing event frames waiting to be written.
	send chan []byte

	// unsubscribe detaches the client from the session's event stream.
	unsubscribe func()

	// closeOnce guards the teardown path; both pumps may trigger it.
	closeOnce sync.Once

	// structured logger with client context.
	logger zerolog.Logger
}

// newClient constructs a Client for an upgraded connection.
func newClient(hub *Hub, conn *websocket.Conn) *Client {
	id := uuid.New().String()

	return &Client{
		ID:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		logger: logx.Logger().With().Str("component", "notify").Str("client_id", id).Logger(),
	}
}

// enqueue marshals a state event and queues it for delivery. A full queue means
// the browser is not draining; the frame is dropped because the stream is
// best-effort and state mutation must never block on it.
func (c *Client) enqueue(ev state.Event) {
	frame, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error().Err(err).Str("event", ev.Name).Msg("Failed to marshal event frame")
		return
	}

	select {
	case c.send <- frame:
	default:
		c.logger.Warn().Str("event", ev.Name).Int("queue_len", len(c.send)).Msg("Stream queue full, dropping event")
	}
}

// writePump drains the send queue onto the connection and keeps the heartbeat
// alive with periodic pings. It terminates on any write failure or when the
// send channel is closed during shutdown.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}
		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedFrame handles frames pulled from the send channel, writing them to the WebSocket.
// Returns true if the writePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing event frame")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the writePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// readPump watches the connection for pongs and closure. The stream carries no
// inbound application messages; anything the browser sends is discarded.
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Stream read ended (client close/going away)")
			}
			return
		}
	}
}

// close tears the client down exactly once: the event subscription is released,
// the client leaves the hub registry, and the connection is closed.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}

		c.hub.remove(c)

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close reported error")
		}

		c.logger.Info().Msg("Stream client closed.")
	})
}
