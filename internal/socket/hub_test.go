package socket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medeasy-api-server/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve registers every upgraded connection under the user and role given
// in the query string and keeps it open until the client goes away.
func serve(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := hub.Register(r.URL.Query().Get("user"), models.Role(r.URL.Query().Get("role")), conn)
		defer func() {
			hub.Unregister(c)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, user, role string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user + "&role=" + role
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitConnected(t *testing.T, hub *Hub, user string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Connected(user) == n }, 2*time.Second, 10*time.Millisecond)
}

func readEvent(t *testing.T, conn *websocket.Conn) models.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev models.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	return ev
}

func TestPublishToUser(t *testing.T) {
	hub := NewHub()
	srv := serve(t, hub)
	conn := dial(t, srv, "u1", "retailer")
	waitConnected(t, hub, "u1", 1)

	hub.PublishToUser("u1", models.Event{Type: models.EventRequestDecided, RequestID: "r1", Status: models.StatusApproved})

	ev := readEvent(t, conn)
	assert.Equal(t, models.EventRequestDecided, ev.Type)
	assert.Equal(t, "r1", ev.RequestID)
	assert.Equal(t, models.StatusApproved, ev.Status)
}

func TestPublishToRole(t *testing.T) {
	hub := NewHub()
	srv := serve(t, hub)
	w1 := dial(t, srv, "w1", "wholesaler")
	w2 := dial(t, srv, "w2", "wholesaler")
	dial(t, srv, "r1", "retailer")
	waitConnected(t, hub, "w1", 1)
	waitConnected(t, hub, "w2", 1)
	waitConnected(t, hub, "r1", 1)

	hub.PublishToRole(models.RoleWholesaler, models.Event{Type: models.EventRequestCreated, RequestID: "x"})

	assert.Equal(t, "x", readEvent(t, w1).RequestID)
	assert.Equal(t, "x", readEvent(t, w2).RequestID)
}

func TestUnregisterOnClose(t *testing.T) {
	hub := NewHub()
	srv := serve(t, hub)
	conn := dial(t, srv, "u1", "customer")
	waitConnected(t, hub, "u1", 1)

	require.NoError(t, conn.Close())
	waitConnected(t, hub, "u1", 0)

	assert.NotPanics(t, func() { hub.Send("u1", []byte("{}")) })
}

func TestFullQueueDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	c := &Client{UserID: "slow", Role: models.RoleRetailer, send: make(chan []byte, 1)}
	hub.add(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Send("slow", []byte("first"))
		hub.Send("slow", []byte("second"))
		hub.PublishToRole(models.RoleRetailer, models.Event{Type: models.EventStockChanged})
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publishing blocked on a client that is not reading")
	}

	require.Len(t, c.send, 1)
	assert.Equal(t, "first", string(<-c.send))

	hub.Unregister(c)
	_, open := <-c.send
	assert.False(t, open, "unregister stops the writer")
	assert.NotPanics(t, func() { hub.Send("slow", []byte("late")) })
}
