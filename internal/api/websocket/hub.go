package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type message struct {
	matchID string
	data    []byte
}

// Hub tracks the clients watching each match.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}

	// onOpen runs when a match gains its first watcher, onClose when it
	// loses its last.
	onOpen  func(matchID string)
	onClose func(matchID string)
}

// NewHub creates a hub. Either callback may be nil.
func NewHub(onOpen, onClose func(matchID string)) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		onOpen:     onOpen,
		onClose:    onClose,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[c.matchID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[c.matchID] = room
			}
			room[c] = true
			h.mu.Unlock()
			if !ok && h.onOpen != nil {
				h.onOpen(c.matchID)
			}

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for c := range h.rooms[msg.matchID] {
				select {
				case c.send <- msg.data:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range slow {
				h.remove(c)
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.matchID]
	if !ok || !room[c] {
		h.mu.Unlock()
		return
	}
	delete(room, c)
	close(c.send)
	empty := len(room) == 0
	if empty {
		delete(h.rooms, c.matchID)
	}
	h.mu.Unlock()

	if empty && h.onClose != nil {
		h.onClose(c.matchID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for c := range room {
			close(c.send)
		}
		delete(h.rooms, id)
	}
}

// Broadcast queues data for every client watching matchID.
func (h *Hub) Broadcast(matchID string, data []byte) {
	select {
	case h.broadcast <- message{matchID: matchID, data: data}:
	case <-h.done:
	}
}

// join registers c and reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients, across all matches
// when matchID is empty.
func (h *Hub) ClientCount(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if matchID != "" {
		return len(h.rooms[matchID])
	}
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

// Client is one websocket connection watching a match.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	matchID string
	send    chan []byte
}

// readPump drains the connection so pongs and close frames are seen.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
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
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
