// internal/socket/hub.go
package socket

import (
	"encoding/json"
	"sync"
	"time"

	"medeasy-api-server/internal/metrics"
	"medeasy-api-server/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 5 * time.Second

	// Messages queued per connection before new ones are dropped.
	sendBuffer = 32
)

// Client is one websocket connection. Its writes happen on a single pump
// goroutine fed by send.
type Client struct {
	UserID string
	Role   models.Role
	conn   *websocket.Conn
	send   chan []byte
}

// writePump drains send until Unregister closes it. A failed write closes
// the connection so the reader returns and unregisters the client.
func (c *Client) writePump() {
	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			metrics.EventsDropped.Inc()
			zap.L().Debug("websocket send failed", zap.String("user", c.UserID), zap.Error(err))
			c.conn.Close()
			for range c.send {
				metrics.EventsDropped.Inc()
			}
			return
		}
	}
}

// Hub manages all websocket clients. A user may hold several connections.
type Hub struct {
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

// Register adds a connection for userID and starts its writer.
func (h *Hub) Register(userID string, role models.Role, conn *websocket.Conn) *Client {
	c := &Client{UserID: userID, Role: role, conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(c)
	go c.writePump()
	zap.L().Debug("websocket client registered", zap.String("user", userID), zap.String("role", string(role)))
	return c
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
}

// Unregister removes one connection and stops its writer.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.clients, c.UserID)
	}
	zap.L().Debug("websocket client unregistered", zap.String("user", c.UserID))
}

// Connected reports how many connections userID holds.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// deliver queues message for every matching connection without waiting on
// the network. The read lock keeps Unregister from closing a queue mid-send.
func (h *Hub) deliver(match func(*Client) bool, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.clients {
		for c := range conns {
			if !match(c) {
				continue
			}
			select {
			case c.send <- message:
			default:
				metrics.EventsDropped.Inc()
				zap.L().Debug("websocket queue full", zap.String("user", c.UserID))
			}
		}
	}
}

// Send queues a raw message for every connection of userID.
func (h *Hub) Send(userID string, message []byte) {
	h.deliver(func(c *Client) bool { return c.UserID == userID }, message)
}

// PublishToUser sends ev to one user.
func (h *Hub) PublishToUser(userID string, ev models.Event) {
	if msg, ok := encode(ev); ok {
		h.Send(userID, msg)
	}
}

// PublishToRole sends ev to every connected user with role.
func (h *Hub) PublishToRole(role models.Role, ev models.Event) {
	if msg, ok := encode(ev); ok {
		h.deliver(func(c *Client) bool { return c.Role == role }, msg)
	}
}

func encode(ev models.Event) ([]byte, bool) {
	msg, err := json.Marshal(ev)
	if err != nil {
		zap.L().Error("encode event", zap.String("type", ev.Type), zap.Error(err))
		return nil, false
	}
	return msg, true
}
