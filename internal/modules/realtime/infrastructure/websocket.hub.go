package infrastructure

import (
	"log/slog"
	"sync"
)

// Hub tracks live websocket clients. Delivery itself goes through role queues;
// the hub exists so shutdown can close hijacked connections and health can count them.
type Hub struct {
	clients map[*Client]struct{}
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Info("ws client registered", slog.String("stream", c.ID()), slog.String("role", c.Role()))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		slog.Info("ws client detached", slog.String("stream", c.ID()), slog.String("role", c.Role()))
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ClientsByRole counts connected clients per role.
func (h *Hub) ClientsByRole() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]int)
	for c := range h.clients {
		out[c.Role()]++
	}
	return out
}

// CloseAll disconnects every client. Closing a client unregisters it.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.close()
	}
}
