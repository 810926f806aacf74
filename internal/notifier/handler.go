package notifier

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

type Handler struct {
	log      *slog.Logger
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(log *slog.Logger, hub *Hub) *Handler {
	return &Handler{
		log: log,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and runs the connection until it drops.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "err", err)
		return
	}
	c := newClient(h.hub, conn)
	h.hub.register(c)
	go c.writePump()
	go c.readPump()
}
