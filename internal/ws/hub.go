// Package ws holds the WebSocket hub used to push notifications to
// connected clients. Uses github.com/coder/websocket
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Event is what goes over the wire to a client
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

type client struct {
	userID string
	send   chan []byte
}

// Hub tracks connected clients per user ID. A user can have several
// connections open (two browser tabs), each one is its own client
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.clients[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
}

// Send delivers an event to every open connection of one user. Slow
// clients get dropped messages instead of blocking the caller
func (h *Hub) Send(userID string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		zap.L().Error("Failed to marshal ws event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
		}
	}
}

// Broadcast delivers an event to every connected client
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		zap.L().Error("Failed to marshal ws event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, set := range h.clients {
		for c := range set {
			select {
			case c.send <- data:
			default:
			}
		}
	}
}

// ActiveConnections returns the number of open connections
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Serve upgrades the request and pumps events to the client until the
// connection dies. Blocks for the lifetime of the connection
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string, origins []string) error {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	c := &client{
		userID: userID,
		send:   make(chan []byte, 32),
	}

	h.register(c)
	defer h.unregister(c)

	ctx := r.Context()

	// Clients don't send anything meaningful, but the read loop has
	// to run so pings are answered and closes are noticed
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case data := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return err
			}
		case err := <-readErr:
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return nil
			}
			return err
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server shutting down")
			return nil
		}
	}
}
