// Package hub manages WebSocket watcher connections for the gateway.
// Every connected watcher receives each conversation snapshot as it is
// produced, so multiple browser tabs stay in sync with the terminal.
package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Watcher represents a single WebSocket connection.
type Watcher struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	mu   sync.Mutex
}

// Hub fans conversation updates out to all registered watchers.
type Hub struct {
	watchers map[string]*Watcher

	register   chan *Watcher
	unregister chan *Watcher
	broadcast  chan []byte

	mu sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		watchers:   make(map[string]*Watcher),
		register:   make(chan *Watcher),
		unregister: make(chan *Watcher),
		broadcast:  make(chan []byte, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case w := <-h.register:
			h.mu.Lock()
			h.watchers[w.ID] = w
			h.mu.Unlock()
			log.Printf("Watcher registered: %s", w.ID)

		case w := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.watchers[w.ID]; ok {
				delete(h.watchers, w.ID)
				close(w.Send)
			}
			h.mu.Unlock()
			log.Printf("Watcher unregistered: %s", w.ID)

		case data := <-h.broadcast:
			h.mu.RLock()
			for id, w := range h.watchers {
				select {
				case w.Send <- data:
				default:
					// Buffer full, close the connection
					log.Printf("Watcher %s buffer full, closing", id)
					go h.Unregister(w)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NewWatcher creates a watcher for a WebSocket connection. The caller
// registers it after the upgrade succeeds.
func (h *Hub) NewWatcher(ws *websocket.Conn) *Watcher {
	return &Watcher{
		ID:   uuid.New().String(),
		Conn: ws,
		Send: make(chan []byte, 256),
	}
}

// Register registers a watcher with the hub.
func (h *Hub) Register(w *Watcher) {
	h.register <- w
}

// Unregister unregisters a watcher from the hub.
func (h *Hub) Unregister(w *Watcher) {
	h.unregister <- w
}

// Broadcast sends raw data to every watcher.
func (h *Hub) Broadcast(data []byte) {
	h.broadcast <- data
}

// BroadcastJSON marshals v and sends it to every watcher.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// SendJSON sends a JSON message to a single watcher.
func (h *Hub) SendJSON(w *Watcher, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case w.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// WatcherCount returns the number of active watchers.
func (h *Hub) WatcherCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

// WriteMessage writes to the connection with proper locking, so the
// ping ticker and the send pump never interleave frames.
func (w *Watcher) WriteMessage(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (w *Watcher) SetWriteDeadline(t time.Time) error {
	return w.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (w *Watcher) SetReadDeadline(t time.Time) error {
	return w.Conn.SetReadDeadline(t)
}

// Close closes the underlying connection.
func (w *Watcher) Close() error {
	return w.Conn.Close()
}

// ErrBufferFull is returned when a watcher's send buffer is full.
var ErrBufferFull = &BufferFullError{}

// BufferFullError represents a full send buffer.
type BufferFullError struct{}

func (e *BufferFullError) Error() string {
	return "send buffer full"
}
