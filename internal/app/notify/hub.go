/*
Package notify contains the browser notification stream: a best-effort WebSocket
channel that forwards state-change events (user set, guild list refreshed,
guild selected, config saved) to the pages so they can refresh themselves.

This file defines the Hub struct, which tracks every connected stream client,
attaches each one to its session's event stream, and tears everything down on
shutdown.
*/
package notify

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rowboatweb/internal/app/state"
	"rowboatweb/internal/pkg/logx"
)

// Hub tracks all connected notification stream clients.
type Hub struct {
	// mu protects concurrent access to the clients map.
	mu sync.Mutex

	// clients stores every connected stream client, keyed by client ID.
	clients map[string]*Client

	// structured logger with Hub context.
	logger zerolog.Logger
}

// NewHub constructs and returns a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logx.Logger().With().Str("component", "notify").Logger(),
	}
}

// Attach wires an upgraded WebSocket connection to the given session's event
// stream and starts the client's pumps. The subscription is released when the
// connection goes away.
func (h *Hub) Attach(conn *websocket.Conn, st *state.State) *Client {
	client := newClient(h, conn)

	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	client.unsubscribe = st.Events().Subscribe(client.enqueue)

	go client.writePump()
	go client.readPump()

	h.logger.Info().Str("client_id", client.ID).Int("clients", h.ClientCount()).Msg("Stream client attached")

	return client
}

// remove drops a client from the registry. Called by the client itself during
// disconnect cleanup.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		h.logger.Info().Str("client_id", client.ID).Int("clients", len(h.clients)).Msg("Stream client removed")
	}
}

// ClientCount returns the number of currently connected stream clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Shutdown closes every connected stream client. Used during graceful server shutdown.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, client := range clients {
		client.close()
	}

	h.logger.Info().Msg("Notification hub shutdown complete.")
}
