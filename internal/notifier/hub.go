package notifier

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// StockUpdate is the outbound push sent to subscribers of a product.
type StockUpdate struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
}

// Hub owns the connection-to-interest registry. It is created once at
// startup and torn down with Close; connections come and go through
// register/unregister driven by the websocket handler.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, known := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if known {
		c.closeSend()
		h.log.Info("client disconnected")
	}
}

// Publish fans a stock change out to every subscriber interested in the
// product. Best-effort: slow or closed connections are skipped, and the
// caller never sees an error. Per-connection ordering is preserved by
// each client's single writer goroutine.
func (h *Hub) Publish(productID string, newStock int) {
	payload, err := json.Marshal(StockUpdate{ProductID: productID, Stock: newStock})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.interested(productID) {
			c.enqueue(payload)
		}
	}
}

// Close drops every registered connection. Used at shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.closeSend()
	}
}
