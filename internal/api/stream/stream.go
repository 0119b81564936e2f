// Package stream broadcasts live access events over WebSocket: an
// upgrader, a registry of live connections guarded by a mutex, and a
// per-client heartbeat to detect dead peers.
package stream

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is one access's outcome, broadcast to every connected client
// right after the PagingEngine finishes servicing it.
type Event struct {
	Type     string `json:"type"` // "connected", "access", "heartbeat"
	Page     uint32 `json:"page,omitempty"`
	Kind     string `json:"kind,omitempty"` // "R" or "W"
	Hit      bool   `json:"hit,omitempty"`
	Evicted  *uint32 `json:"evicted,omitempty"`
	Message  string `json:"message,omitempty"`
}

// conn pairs a WebSocket connection with the mutex that serializes
// every write to it. gorilla/websocket allows at most one concurrent
// writer per connection; Broadcast and a connection's own heartbeat
// goroutine would otherwise both call WriteJSON on the same conn with
// no ordering between them.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

// Hub fans a stream of Events out to every connected WebSocket client.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*conn
}

// NewHub creates an empty event hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]*conn)}
}

// Broadcast sends ev to every currently connected client, logging any
// write that fails. It does not remove the connection; that happens
// when the connection's own handler exits on a read or heartbeat error.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.conns {
		if err := c.writeJSON(ev); err != nil {
			log.Printf("stream: write to %s failed: %v", id, err)
		}
	}
}

func (h *Hub) add(id string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = c
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

// Close drops every connection the hub is tracking.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.conns {
		c.ws.Close()
	}
	h.conns = make(map[string]*conn)
}

// Handler upgrades the request to a WebSocket and registers it with
// the hub for the connection's lifetime, sending a heartbeat every 30
// seconds so dead peers are reaped rather than leaking.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("stream: upgrade failed: %v", err)
			return
		}
		c := &conn{ws: ws}

		id := fmt.Sprintf("ws-%d", time.Now().UnixNano())
		h.add(id, c)
		defer func() {
			h.remove(id)
			ws.Close()
		}()

		if err := c.writeJSON(Event{Type: "connected", Message: "access stream connected"}); err != nil {
			return
		}

		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := c.writeJSON(Event{Type: "heartbeat"}); err != nil {
					return
				}
			}
		}
	}
}
