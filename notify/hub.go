// Package notify fans livestream status events out to WebSocket subscribers,
// one room per livestream.
package notify

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Event is the message published on a livestream status change.
type Event struct {
	ID           string    `json:"id"`
	Event        string    `json:"event"`
	LivestreamID uint      `json:"livestream_id"`
	Status       string    `json:"status"`
	Message      string    `json:"message,omitempty"`
	At           time.Time `json:"at"`
}

// Publisher is what controllers depend on.
type Publisher interface {
	PublishLivestream(livestreamID uint, status, message string)
}

func LivestreamRoom(id uint) string {
	return fmt.Sprintf("livestream_%d", id)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	room string
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps the subscribers of every room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]struct{})}
}

// Publish sends v as JSON to every subscriber of room. Subscribers whose
// buffer is full are dropped.
func (h *Hub) Publish(room string, v interface{}) error {
	payload, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- payload:
		default:
			h.removeLocked(c)
		}
	}
	return nil
}

func (h *Hub) PublishLivestream(livestreamID uint, status, message string) {
	ev := Event{
		ID:           uuid.NewString(),
		Event:        "livestream.status",
		LivestreamID: livestreamID,
		Status:       status,
		Message:      message,
		At:           time.Now().UTC(),
	}
	if err := h.Publish(LivestreamRoom(livestreamID), ev); err != nil {
		log.Printf("[NOTIFY] publish to livestream %d failed: %v", livestreamID, err)
	}
}

// Subscribers returns the number of connections in room.
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[c.room] == nil {
		h.rooms[c.room] = make(map[*client]struct{})
	}
	h.rooms[c.room][c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	members, ok := h.rooms[c.room]
	if !ok {
		return
	}
	if _, ok := members[c]; !ok {
		return
	}
	delete(members, c)
	close(c.send)
	if len(members) == 0 {
		delete(h.rooms, c.room)
	}
}

// Handler serves GET /ws/livestreams/{id}.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/livestreams/{id}", h.serveLivestream)
	return mux
}

func (h *Hub) serveLivestream(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "invalid livestream id", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[NOTIFY] upgrade failed: %v", err)
		return
	}
	c := &client{room: LivestreamRoom(uint(id)), conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(c)
	go h.writePump(c)
	h.readPump(c)
}

// readPump only drains control frames; subscribers never send data.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
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

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
