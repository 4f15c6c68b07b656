// Package hub pushes reservation session events to the user's open
// storefront pages over WebSocket, so a countdown started in one tab
// stays in lock-step everywhere the cart is visible.
package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message is the wire format broadcast to subscribed pages.
type Message struct {
	Type             string   `json:"type"`
	SessionID        string   `json:"session_id,omitempty"`
	ConcertID        uint64   `json:"concert_id,omitempty"`
	Phase            string   `json:"phase,omitempty"`
	RemainingSeconds int      `json:"remaining_seconds"`
	SeatIDs          []string `json:"seat_ids,omitempty"`
	TotalCents       uint32   `json:"total_cents,omitempty"`
	BookingID        string   `json:"booking_id,omitempty"`
	Timestamp        int64    `json:"timestamp"`
}

// Client is one subscribed WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint64
}

type userMessage struct {
	userID uint64
	data   []byte
}

// Hub fans session events out to each user's connections. It is an
// injected dependency; callers own its lifetime and must call Run in a
// goroutine before subscribing clients.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uint64]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan userMessage
}

// NewHub returns a hub ready for Run.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan userMessage, 256),
	}
}

// Run is the hub's main loop. Blocks until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.userID]; ok {
				if conns[client] {
					delete(conns, client)
					close(client.send)
				}
				if len(conns) == 0 {
					delete(h.clients, client.userID)
				}
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer; drop the message rather than block
					// the countdown for everyone else.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to every connection of one user.
func (h *Hub) Broadcast(userID uint64, msg Message) {
	msg.Timestamp = time.Now().Unix()
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("hub: marshal message failed: %v", err)
		return
	}
	select {
	case h.broadcast <- userMessage{userID: userID, data: data}:
	default:
		log.Printf("hub: broadcast buffer full, dropping %s for user %d", msg.Type, userID)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The storefront and this gateway are same-origin in every deployment;
	// cross-origin pages have nothing to subscribe to.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Subscribe upgrades the request and attaches the connection to the
// user's broadcast set. Returns after spawning the read/write pumps.
func (h *Hub) Subscribe(userID uint64, w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 64), userID: userID}
	h.register <- client
	go client.writePump()
	go client.readPump()
	return nil
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// readPump discards client frames; the socket is push-only. It exists to
// notice closes and keep the pong deadline fresh.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
