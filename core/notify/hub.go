package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"melotree/logger"

	"github.com/gorilla/websocket"
)

// EventType names a library lifecycle event.
type EventType string

const (
	EventLibraryImported EventType = "library_imported"
	EventLibraryDeleted  EventType = "library_deleted"
)

// Event is the message broadcast to websocket subscribers.
type Event struct {
	Type       EventType `json:"type"`
	LibraryID  string    `json:"libraryId"`
	Name       string    `json:"name,omitempty"`
	UserID     int64     `json:"userId,omitempty"`
	TrackCount int       `json:"trackCount,omitempty"`
	Timestamp  int64     `json:"timestamp"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans library events out to connected websocket clients.
type Hub struct {
	mu         sync.Mutex
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan Event
}

// NewHub creates a hub. Run must be started on its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 16),
	}
}

// Run processes register/unregister/broadcast events until the context is
// cancelled. On shutdown every remaining client's send channel is closed,
// which makes its writePump send a close frame and exit.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- event:
				default:
					// Slow consumer, drop it
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish broadcasts an event to all connected clients. Stamps the event time.
func (h *Hub) Publish(event Event) {
	event.Timestamp = time.Now().UnixMilli()
	select {
	case h.broadcast <- event:
	default:
		logger.Warn("event broadcast queue full, dropping event",
			logger.String("type", string(event.Type)),
			logger.String("libraryId", event.LibraryID))
	}
}

// ServeWS upgrades an HTTP request and subscribes the connection to events.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	c := &client{conn: conn, send: make(chan Event, 8)}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

// writePump pushes events and pings to the peer.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				logger.Warn("websocket write failed", logger.ErrorField(err))
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

// readPump discards inbound messages; it exists to detect closes and answer
// pongs.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
