package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"plate-watch/internal/domain/plate"
)

// Hub fans detection events out to every connected dashboard client.
// Broadcasts are fire-and-forget: a full buffer drops the message rather
// than blocking the recognition pipeline.
type Hub struct {
	log zerolog.Logger

	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 64),
	}
}

// Run owns the client set. It must be running before any Register or
// broadcast call and stops when the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for conn := range h.clients {
				conn.Close()
			}
			return

		case conn := <-h.register:
			h.clients[conn] = struct{}{}
			h.log.Debug().Int("clients", len(h.clients)).Msg("websocket client connected")

		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.log.Debug().Int("clients", len(h.clients)).Msg("websocket client disconnected")

		case msg := <-h.broadcast:
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					h.log.Debug().Err(err).Msg("dropping broken websocket client")
					delete(h.clients, conn)
					conn.Close()
				}
			}
		}
	}
}

// Register adds a connection and drains incoming messages until the peer
// disconnects. Clients are listen-only.
func (h *Hub) Register(conn *websocket.Conn) {
	h.register <- conn

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// BroadcastAlert notifies clients that a monitored plate was seen.
func (h *Hub) BroadcastAlert(detection, monitoredPlate interface{}) {
	h.send(plate.BroadcastEvent{
		Event:          plate.EventPlateAlert,
		Detection:      detection,
		MonitoredPlate: monitoredPlate,
		Timestamp:      time.Now(),
	})
}

// BroadcastDetection notifies clients of a benign detection.
func (h *Hub) BroadcastDetection(detection interface{}) {
	h.send(plate.BroadcastEvent{
		Event:     plate.EventPlateDetected,
		Detection: detection,
		Timestamp: time.Now(),
	})
}

func (h *Hub) send(event plate.BroadcastEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("event", event.Event).Msg("failed to marshal broadcast event")
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn().Str("event", event.Event).Msg("broadcast buffer full, dropping event")
	}
}
