package v1

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/tottenjordan/zghost/internal/config"
	"github.com/tottenjordan/zghost/internal/hub"
	"github.com/tottenjordan/zghost/internal/service"
)

const maxInboundMessageSize = 4 * 1024

// WSServer upgrades watcher connections and keeps them fed with
// conversation snapshots.
type WSServer struct {
	cfg      *config.Config
	hub      *hub.Hub
	service  *service.Service
	upgrader websocket.Upgrader
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(cfg *config.Config, h *hub.Hub, svc *service.Service) *WSServer {
	return &WSServer{
		cfg:     cfg,
		hub:     h,
		service: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Local gateway, same-host browser clients
				return true
			},
		},
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (s *WSServer) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", s.HandleWebSocket)
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
// Watchers are read-only: commands go through the REST endpoints and
// every state change is pushed here as a full snapshot.
func (s *WSServer) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return err
	}

	w := s.hub.NewWatcher(ws)
	s.hub.Register(w)

	ws.SetReadLimit(maxInboundMessageSize)

	// New watchers get the current state immediately.
	if err := s.hub.SendJSON(w, s.service.Snapshot()); err != nil {
		log.Printf("Failed to send initial snapshot: %v", err)
	}

	go s.writePump(w)
	go s.readPump(w)

	return nil
}

// readPump drains the connection so pings and close frames are handled.
func (s *WSServer) readPump(w *hub.Watcher) {
	defer func() {
		s.hub.Unregister(w)
		w.Close()
	}()

	w.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	w.Conn.SetPongHandler(func(string) error {
		w.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := w.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// writePump forwards hub messages and keeps the connection alive.
func (s *WSServer) writePump(w *hub.Watcher) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		w.Close()
	}()

	for {
		select {
		case message, ok := <-w.Send:
			w.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				// Hub closed the channel
				w.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := w.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			w.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := w.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
