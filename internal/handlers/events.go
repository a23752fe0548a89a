package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"photo-journal/internal/gallery"
	"photo-journal/internal/logging"
	"photo-journal/internal/metrics"
	"photo-journal/internal/notify"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 8
)

// Event types
const (
	EventView = "view"
)

// Event is one message pushed to websocket clients.
type Event struct {
	Type      string             `json:"type"`
	View      *gallery.ViewModel `json:"view,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// ViewSource is the part of a gallery session the hub reads.
type ViewSource interface {
	View(ctx context.Context) (gallery.ViewModel, error)
	Subscribe(fn func()) notify.Handle
	Unsubscribe(h notify.Handle) bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// EventHub pushes the view model to every connected client after each
// session change. Changes arriving faster than views can be built are
// coalesced into one push.
type EventHub struct {
	source  ViewSource
	handle  notify.Handle
	dirty   chan struct{}
	mu      sync.Mutex
	clients map[*eventClient]struct{}
	closed  bool
}

type eventClient struct {
	hub  *EventHub
	conn *websocket.Conn
	send chan []byte
}

// NewEventHub creates a hub subscribed to source. Run must be called to
// start pushing.
func NewEventHub(source ViewSource) *EventHub {
	h := &EventHub{
		source:  source,
		dirty:   make(chan struct{}, 1),
		clients: make(map[*eventClient]struct{}),
	}
	// The callback runs on the session loop, so it only marks the hub dirty.
	h.handle = source.Subscribe(h.markDirty)
	return h
}

// Run pushes views until ctx is done. It then unsubscribes and disconnects
// every client.
func (h *EventHub) Run(ctx context.Context) {
	defer h.source.Unsubscribe(h.handle)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.dirty:
			if h.ClientCount() == 0 {
				continue
			}
			msg, err := h.viewMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logging.Debug("events: build view failed: %v", err)
				}
				continue
			}
			h.broadcast(msg)
		}
	}
}

func (h *EventHub) markDirty() {
	select {
	case h.dirty <- struct{}{}:
	default:
	}
}

func (h *EventHub) viewMessage(ctx context.Context) ([]byte, error) {
	vm, err := h.source.View(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Type: EventView, View: &vm, Timestamp: time.Now()})
}

// broadcast queues msg on every client. A client whose queue is full is
// dropped.
func (h *EventHub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			logging.Debug("events: dropping slow client %s", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
}

func (h *EventHub) register(c *eventClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.EventClientsConnected.Inc()
	return true
}

func (h *EventHub) unregister(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *EventHub) removeLocked(c *eventClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.EventClientsConnected.Dec()
}

func (h *EventHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// ClientCount returns the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams view events. The current view
// is sent first.
func (h *EventHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Debug("events: upgrade failed: %v", err)
		return
	}

	c := &eventClient{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		conn.Close()
		return
	}

	if msg, err := h.viewMessage(r.Context()); err == nil {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			select {
			case c.send <- msg:
			default:
			}
		}
		h.mu.Unlock()
	}

	go c.writePump()
	c.readPump()
}

// readPump discards client messages and keeps the read deadline fresh.
func (c *eventClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug("events: read error: %v", err)
			}
			return
		}
	}
}

func (c *eventClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
