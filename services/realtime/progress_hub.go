package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket limits
const (
	MaxClients    = 100
	PingInterval  = 30 * time.Second
	WriteTimeout  = 10 * time.Second
	PongTimeout   = 60 * time.Second
	sendQueueSize = 256
)

// ProgressEvent is one per-symbol completion update broadcast during a
// screening run
type ProgressEvent struct {
	RunID     string `json:"run_id"`
	Symbol    string `json:"symbol"`
	OK        bool   `json:"ok"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// message is the envelope written to clients
type message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time string      `json:"time"`
}

// client is one connected WebSocket subscriber
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// ProgressHub broadcasts screening progress events to WebSocket clients.
// Slow clients are dropped rather than blocking the broadcast.
type ProgressHub struct {
	clients    map[*client]bool
	broadcast  chan message
	register   chan *client
	unregister chan *client
	shutdown   chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
}

// NewProgressHub creates the hub and starts its run loop
func NewProgressHub() *ProgressHub {
	h := &ProgressHub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan message, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		shutdown:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	go h.run()
	return h
}

// Shutdown closes all client connections and stops the hub
func (h *ProgressHub) Shutdown() {
	close(h.shutdown)
	h.mu.Lock()
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
	}
	h.clients = make(map[*client]bool)
	h.mu.Unlock()
	log.Println("Progress hub shutdown complete")
}

// PublishProgress broadcasts one progress event to all clients. Never
// blocks the screening run: if the hub's buffer is full the event is
// dropped.
func (h *ProgressHub) PublishProgress(event ProgressEvent) {
	msg := message{
		Type: "screen_progress",
		Data: event,
		Time: time.Now().UTC().Format(time.RFC3339),
	}
	select {
	case h.broadcast <- msg:
	default:
	}
}

// run is the hub's event loop
func (h *ProgressHub) run() {
	for {
		select {
		case <-h.shutdown:
			return

		case c := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= MaxClients {
				h.mu.Unlock()
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "Server at capacity"))
				c.conn.Close()
				log.Printf("WebSocket client rejected: max clients reached (%d)", MaxClients)
				continue
			}
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("WebSocket client connected. Total clients: %d", count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("WebSocket client disconnected. Total clients: %d", count)

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshaling progress message: %v", err)
				continue
			}
			h.mu.Lock()
			var dead []*client
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					dead = append(dead, c)
				}
			}
			for _, c := range dead {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		}
	}
}

// HandleWebSocket upgrades an HTTP request into a progress subscription
func (h *ProgressHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	atCapacity := len(h.clients) >= MaxClients
	h.mu.RUnlock()
	if atCapacity {
		http.Error(w, "Server at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendQueueSize)}
	h.register <- c
	go c.writePump()
	go c.readPump(h)
}

// writePump writes queued messages and pings to the connection
func (c *client) writePump() {
	ticker := time.NewTicker(PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client messages to keep the connection's pong handler
// running; subscribers do not send commands
func (c *client) readPump(h *ProgressHub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(PongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}
	}
}
