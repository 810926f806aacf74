package notifier

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

var errInvalidFormat = []byte(`{"error":"Invalid message format"}`)

// Client is one live connection with its interest set. Not persisted;
// the subscription dies with the connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	mu       sync.Mutex
	interest map[string]struct{}
	send     chan []byte
	closed   bool
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		interest: make(map[string]struct{}),
		send:     make(chan []byte, sendBuffer),
	}
}

func (c *Client) interested(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.interest[productID]
	return ok
}

// setInterest replaces the whole interest set; last subscribe wins.
func (c *Client) setInterest(productIDs []string) {
	next := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		next[id] = struct{}{}
	}
	c.mu.Lock()
	c.interest = next
	c.mu.Unlock()
}

// enqueue hands a message to the write pump without ever blocking the
// publisher. A full buffer means the client is too slow; the message is
// dropped for that client only.
func (c *Client) enqueue(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

type inbound struct {
	Action     string   `json:"action"`
	ProductIDs []string `json:"productIds"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Action != "subscribe" || msg.ProductIDs == nil {
			// Existing subscription stays as it was.
			c.enqueue(errInvalidFormat)
			continue
		}
		c.setInterest(msg.ProductIDs)
		ack, _ := json.Marshal(map[string]string{
			"message": "Subscribed to products: " + strings.Join(msg.ProductIDs, ", "),
		})
		c.enqueue(ack)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
