package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/strataxr/anchord/internal/monitoring"
)

// deltaQueueSize bounds each client's pending delta batches. A client
// that falls this far behind is disconnected rather than allowed to
// stall the pump.
const deltaQueueSize = 16

// DeltaHub fans drained scene deltas out to websocket renderer
// clients. Each client gets its own buffered queue and writer
// goroutine so one slow renderer cannot block the others.
type DeltaHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

type hubClient struct {
	conn  *websocket.Conn
	sendq chan []byte
}

// NewDeltaHub creates an empty hub.
func NewDeltaHub() *DeltaHub {
	return &DeltaHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The daemon serves local renderers; no cross-origin UI.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*hubClient]struct{}),
	}
}

// ServeHTTP upgrades the request to a websocket and registers the
// client for delta broadcasts.
func (h *DeltaHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("delta hub upgrade failed: %v", err)
		return
	}

	c := &hubClient{
		conn:  conn,
		sendq: make(chan []byte, deltaQueueSize),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Broadcast encodes one drained batch and queues it to every client.
// Clients whose queue is full are dropped.
func (h *DeltaHub) Broadcast(deltas []DeltaDTO) {
	if len(deltas) == 0 {
		return
	}
	payload, err := json.Marshal(deltas)
	if err != nil {
		monitoring.Logf("delta hub encode failed: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.sendq <- payload:
		default:
			// Slow client: close its queue, the writer tears it down.
			delete(h.clients, c)
			close(c.sendq)
		}
	}
}

// ClientCount returns the number of connected renderer clients.
func (h *DeltaHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *DeltaHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.sendq)
	}
}

func (h *DeltaHub) writeLoop(c *hubClient) {
	defer c.conn.Close()
	for payload := range c.sendq {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(c)
			return
		}
	}
}

// readLoop discards inbound frames; its job is noticing disconnects.
func (h *DeltaHub) readLoop(c *hubClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			c.conn.Close()
			return
		}
	}
}

func (h *DeltaHub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.sendq)
	}
}
