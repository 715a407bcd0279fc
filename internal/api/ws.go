package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"garden-monitor/internal/bus"
	"garden-monitor/internal/logging"
	"garden-monitor/internal/toast"
)

// StreamEvent is one message on the websocket stream.
type StreamEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub fans StreamEvents out to every connected dashboard client.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
	log   *logging.Logger
}

func NewHub(log *logging.Logger) *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool), log: log}
}

func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
	h.log.Infof("WebSocket client connected (total: %d)", len(h.conns))
}

func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
	h.log.Infof("WebSocket client disconnected (remaining: %d)", len(h.conns))
}

// Broadcast writes event to every client, dropping connections that fail.
func (h *Hub) Broadcast(event StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(event); err != nil {
			h.log.Errorf("WebSocket write failed, dropping client: %v", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// PushToast is the toast manager hook: every created toast goes straight
// to connected clients.
func (h *Hub) PushToast(t toast.Toast) {
	h.Broadcast(StreamEvent{Type: "toast-created", Data: t})
}

// Forward relays bus events (rule config, read state) onto the stream so
// open views react without re-fetching.
func (h *Hub) Forward(ctx context.Context, b *bus.Bus, wg *sync.WaitGroup) {
	sub := b.Subscribe(bus.TopicRuleConfigChanged, bus.TopicReadStateChanged)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-sub.C:
				h.Broadcast(StreamEvent{Type: string(ev.Topic)})
			}
		}
	}()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Stream upgrades to a websocket and keeps the connection registered
// until the client goes away.
func (h *Handler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	h.hub.Add(conn)

	go func() {
		defer func() {
			h.hub.Remove(conn)
			conn.Close()
		}()
		for {
			// Clients only listen; reads exist to detect close.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
