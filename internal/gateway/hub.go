package gateway

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/simpleshare/client/internal/state"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway binds to localhost for a single local UI process.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const connSendBuffer = 64

// Hub streams state mutations to connected UI websockets. Each connection
// gets one buffered send queue drained by a single writer goroutine, so
// frames reach the UI in the order the store applied them (an enrichment
// update must never overtake its add).
type Hub struct {
	store *state.Store

	mu    sync.Mutex
	conns map[*websocket.Conn]chan interface{}
}

func NewHub(store *state.Store) *Hub {
	return &Hub{
		store: store,
		conns: make(map[*websocket.Conn]chan interface{}),
	}
}

// Run consumes the store's mutation stream and fans each event out to every
// connected client. Returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	ch, cancel := h.store.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(m)
		}
	}
}

func (h *Hub) broadcast(m state.Mutation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, send := range h.conns {
		// Best-effort: a client that is not draining its queue loses the
		// event rather than stalling the fan-out.
		select {
		case send <- m:
		default:
			log.Printf("[gateway] dropping %s/%s frame for slow client", m.Entity, m.Op)
		}
	}
}

// unregister is idempotent; the send queue is closed exactly once.
func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		close(send)
	}
	h.mu.Unlock()
	conn.Close()
}

// ServeWS upgrades the request and keeps the connection registered until the
// client goes away. The first frame sent is a full state snapshot so a
// reconnecting UI starts consistent; it is queued before the connection joins
// the fan-out, so no mutation can precede it.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] websocket upgrade: %v", err)
		return
	}

	send := make(chan interface{}, connSendBuffer)

	h.mu.Lock()
	send <- map[string]interface{}{
		"entity": "snapshot",
		"data":   h.store.Snapshot(),
	}
	h.conns[conn] = send
	h.mu.Unlock()

	go func() {
		for frame := range send {
			if err := conn.WriteJSON(frame); err != nil {
				log.Printf("[gateway] websocket write: %v", err)
				h.unregister(conn)
				return
			}
		}
	}()

	go func() {
		defer h.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
