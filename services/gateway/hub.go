package gateway

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vsc-eco/vsc-amm/events"
)

// wsMessage is the frame broadcast for every AMM event.
type wsMessage struct {
	Name string       `json:"name"`
	Data events.Event `json:"data"`
}

// Hub fans AMM events out to websocket subscribers. It implements events.Sink
// so it can be wired straight into the registry.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub returns an empty hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Emit broadcasts the event to every subscriber. A connection that fails to
// take the write is dropped.
func (h *Hub) Emit(ev events.Event) {
	payload, err := json.Marshal(wsMessage{Name: ev.EventName(), Data: ev})
	if err != nil {
		h.log.Error("marshal event", zap.String("event", ev.EventName()), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn("drop subscriber", zap.Error(err))
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// HandleWS upgrades the request and subscribes the connection to the event
// feed until the peer goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	// Subscribers only receive; the read loop just detects disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.conns, conn)
				h.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
