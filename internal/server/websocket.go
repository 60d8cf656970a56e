package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/critterchain/critterchain/internal/core/events/bus"
	"github.com/critterchain/critterchain/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wireEvent is the JSON frame pushed to stream subscribers.
type wireEvent struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// eventHub fans committed-state events out to WebSocket clients. Slow
// clients are disconnected rather than allowed to stall the hub.
type eventHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	buffer  int
	sub     bus.Subscription
	log     log.Log
}

func newEventHub(events bus.EventBus, buffer int, logger log.Log) *eventHub {
	if buffer <= 0 {
		buffer = 256
	}
	h := &eventHub{
		clients: make(map[*websocket.Conn]chan []byte),
		buffer:  buffer,
		log:     logger,
	}
	h.sub = events.Subscribe(bus.Wildcard, h.broadcast)
	return h
}

func (h *eventHub) broadcast(e bus.Event) error {
	frame, err := json.Marshal(wireEvent{
		Type:      e.Type(),
		Source:    e.Source(),
		Timestamp: e.Timestamp(),
		Data:      e.Data(),
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- frame:
		default:
			h.log.Warn("event stream client too slow, dropping", log.String("remote", conn.RemoteAddr().String()))
			delete(h.clients, conn)
			close(ch)
		}
	}
	return nil
}

func (h *eventHub) add(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, h.buffer)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *eventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *eventHub) close() {
	if h.sub != nil {
		h.sub.Cancel()
	}
	h.mu.Lock()
	for conn, ch := range h.clients {
		close(ch)
		_ = conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

// handleEvents upgrades the connection and streams every event from
// the moment of subscription. There is no replay here; the journal
// serves history.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	ch := s.hub.add(conn)
	s.log.Debug("event stream client connected", log.String("remote", conn.RemoteAddr().String()))

	// Reader goroutine: discard client frames, detect disconnect.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.remove(conn)
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		for frame := range ch {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.hub.remove(conn)
				_ = conn.Close()
				return
			}
		}
		_ = conn.Close()
	}()
}
