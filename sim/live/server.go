// Package live streams committed tick payloads to WebSocket observers. The
// hub implements sim.Sink with a keep-latest policy per client: a slow
// observer skips ticks instead of backing up the scheduler.
package live

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/hamlet-sim/hamlet-sim/sim"
)

// Frame is the wire form of one tick sent to observers.
type Frame struct {
	Tick    int64                       `json:"tick"`
	State   *sim.CanonicalState         `json:"state"`
	Beliefs map[string]*sim.BeliefState `json:"beliefs"`
	Events  []sim.EventEnvelope         `json:"events"`
}

type client struct {
	conn *websocket.Conn
	// Buffered depth 1; Publish replaces a pending frame instead of waiting.
	frames chan *Frame
}

// Hub upgrades observer connections and fans frames out to them.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub returns a hub with no connected observers.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades an observer connection and streams frames until the
// peer disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("live: upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, frames: make(chan *Frame, 1)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	logrus.Infof("live: observer connected from %s", r.RemoteAddr)

	go h.writeLoop(c)
	// Drain control/incoming frames so pings are handled; observers never
	// send application data.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(c)
}

// OnTick implements sim.Sink: every connected observer is offered the
// frame, replacing any frame it has not consumed yet.
func (h *Hub) OnTick(p *sim.TickPayload) {
	events, err := sim.EncodeEvents(p.Events)
	if err != nil {
		logrus.Warnf("live: encode events: %v", err)
		return
	}
	frame := &Frame{Tick: p.Tick, State: p.State, Beliefs: p.Beliefs, Events: events}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.frames <- frame:
		default:
			// Keep latest only.
			select {
			case <-c.frames:
			default:
			}
			select {
			case c.frames <- frame:
			default:
			}
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	for frame := range c.frames {
		data, err := json.Marshal(frame)
		if err != nil {
			logrus.Warnf("live: marshal frame: %v", err)
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.frames)
	}
	h.mu.Unlock()
	c.conn.Close()
}

// ClientCount reports connected observers, for tests.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
