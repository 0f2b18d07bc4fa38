package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowboatweb/internal/app/api"
	"rowboatweb/internal/app/state"
)

// dialTestStream stands up an upgrade endpoint attached to st and dials it.
func dialTestStream(t *testing.T, hub *Hub, st *state.State) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Attach(conn, st)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if res != nil {
		res.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return st.Events().SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	return conn
}

func TestStreamForwardsStateEvents(t *testing.T) {
	hub := NewHub()
	st := state.New(api.NewClient("http://localhost:0", nil))

	conn := dialTestStream(t, hub, st)

	st.Events().Emit(state.Event{Name: state.EventConfigSaved, GuildID: "100"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev state.Event
	require.NoError(t, json.Unmarshal(frame, &ev))
	assert.Equal(t, state.EventConfigSaved, ev.Name)
	assert.Equal(t, "100", ev.GuildID)
}

func TestClientDisconnectReleasesSubscription(t *testing.T) {
	hub := NewHub()
	st := state.New(api.NewClient("http://localhost:0", nil))

	conn := dialTestStream(t, hub, st)
	require.Equal(t, 1, hub.ClientCount())

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0 && st.Events().SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "disconnect must drop the client and its subscription")
}

func TestShutdownClosesAllClients(t *testing.T) {
	hub := NewHub()
	st := state.New(api.NewClient("http://localhost:0", nil))

	conn := dialTestStream(t, hub, st)

	hub.Shutdown()

	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "the server side of the connection must be gone")

	require.Eventually(t, func() bool {
		return st.Events().SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
