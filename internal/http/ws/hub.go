package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"countycricket-live/internal/logging"
)

// ErrHubClosed is returned when broadcasting after the hub stopped.
var ErrHubClosed = errors.New("ws: hub closed")

// Handler processes an inbound message from a client.
type Handler func(ctx context.Context, clientID string, msg Message)

// Greeter returns the messages a client receives right after connecting.
type Greeter func() [][]byte

// Hub fans broadcasts out to every connected client.
type Hub struct {
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	clients    map[*Client]struct{}
	count      atomic.Int64

	mu       sync.RWMutex
	handlers map[string]Handler
	greeters []Greeter
	ctx      context.Context
}

// NewHub builds a hub accepting connections from the given origins ("*" allows any).
func NewHub(logger *slog.Logger, allowedOrigins []string) *Hub {
	h := &Hub{
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		handlers:   make(map[string]Handler),
		ctx:        context.Background(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Handle registers a handler for an inbound message type.
func (h *Hub) Handle(msgType string, fn Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[msgType] = fn
}

// OnConnect registers a greeter run for each new client.
func (h *Hub) OnConnect(fn Greeter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.greeters = append(h.greeters, fn)
}

// Run serves registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			h.logDebug("websocket client connected", "client_id", c.ID, logging.FieldCount, len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.logDebug("websocket client disconnected", "client_id", c.ID, logging.FieldCount, len(h.clients))
			}
		case data := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// Slow consumer; it reconnects and is greeted with current state.
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(msgType string, payload any) error {
	data, err := Encode(msgType, payload)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// ServeHTTP upgrades the request and attaches the client to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logWarn("websocket upgrade failed", err)
		return
	}
	c := newClient(h, conn)

	h.mu.RLock()
	greeters := append([]Greeter(nil), h.greeters...)
	h.mu.RUnlock()
	for _, greet := range greeters {
		for _, data := range greet() {
			select {
			case c.send <- data:
			default:
			}
		}
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) dispatch(c *Client, msg Message) {
	h.mu.RLock()
	fn, ok := h.handlers[msg.Type]
	ctx := h.ctx
	h.mu.RUnlock()
	if !ok {
		h.logDebug("websocket message without handler", "type", msg.Type, "client_id", c.ID)
		return
	}
	fn(ctx, c.ID, msg)
}

func (h *Hub) logDebug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

func (h *Hub) logWarn(msg string, err error, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, append(args, logging.FieldError, err)...)
	}
}
