// Package events streams volunteer registry changes to connected admin pages
// over WebSocket.
package events

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Type string

const (
	TypeConnected           Type = "connected"
	TypeVolunteerRegistered Type = "volunteer.registered"
	TypePoliceFormAttached  Type = "volunteer.police_form"
	TypeVolunteerApproved   Type = "volunteer.approved"
)

// Event is one message on the feed.
type Event struct {
	Type      Type              `json:"type"`
	IDNumber  string            `json:"id_number,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

const (
	sendBuffer     = 64
	broadcastQueue = 256
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan Event
}

// Hub fans events out to every connected client. A client that cannot keep
// up is disconnected rather than slowing the others down.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan Event
	register   chan *client
	unregister chan *client
	done       chan struct{}
	count      atomic.Int64
	logger     *zap.Logger
	now        func() time.Time
}

func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan Event, broadcastQueue),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		logger:     logger,
		now:        time.Now,
	}
	go h.run()
	return h
}

// Publish queues e for every client. It never blocks; events are dropped
// when the queue is full.
func (h *Hub) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = h.now().UTC()
	}
	select {
	case h.broadcast <- e:
	case <-h.done:
	default:
		h.logger.Warn("Event queue full, dropping event", zap.String("type", string(e.Type)))
	}
}

// Connections returns the number of connected clients.
func (h *Hub) Connections() int {
	return int(h.count.Load())
}

// Close disconnects every client and stops the hub.
func (h *Hub) Close() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.count.Add(1)
			h.logger.Debug("Event client connected", zap.String("client_id", c.id))

		case c := <-h.unregister:
			h.drop(c)

		case e := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- e:
				default:
					h.drop(c)
				}
			}

		case <-h.done:
			for c := range h.clients {
				h.drop(c)
			}
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.count.Add(-1)
	h.logger.Debug("Event client disconnected", zap.String("client_id", c.id))
}

// serve registers conn and pumps events to it until either side closes.
func (h *Hub) serve(conn *websocket.Conn) {
	c := &client{id: uuid.NewString(), conn: conn, send: make(chan Event, sendBuffer)}
	c.send <- Event{Type: TypeConnected, Data: map[string]string{"client_id": c.id}, Timestamp: h.now().UTC()}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// readPump only keeps the connection alive; clients do not send anything
// meaningful.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("Event client read failed", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case e, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(e); err != nil {
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
