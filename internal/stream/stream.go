// Package stream publishes simulation snapshots to websocket clients. The
// feed is read-only: messages from clients are read and discarded.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/sim"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 4
)

// Hub fans snapshots out to connected clients. Each client has its own
// rate limiter; snapshots arriving faster than the limit, or while the
// client's buffer is full, are dropped for that client.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte
	closed  bool

	limit    rate.Limit
	burst    int
	log      logging.Logger
	upgrader websocket.Upgrader
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	log     logging.Logger
}

// NewHub returns a hub sending at most perSecond snapshots per second to
// each client.
func NewHub(perSecond float64, log logging.Logger) *Hub {
	if log == nil {
		log = logging.Noop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		limit:   rate.Limit(perSecond),
		burst:   1,
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues snap for every client whose limiter allows it. It never
// blocks on a slow client.
func (h *Hub) Publish(snap sim.Snapshot) {
	msg, err := json.Marshal(snap)
	if err != nil {
		h.log.Error(context.Background(), "encode snapshot", logging.Err(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = msg
	for c := range h.clients {
		if !c.limiter.Allow() {
			continue
		}
		select {
		case c.send <- msg:
		default:
			c.log.Debug(context.Background(), "client slow; snapshot dropped")
		}
	}
}

// ServeHTTP upgrades the request and streams snapshots until the client
// disconnects. A new client receives the latest snapshot immediately.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logging.Err(err))
		return
	}
	ctx, log := logging.WithSession(r.Context(), h.log)
	log = log.With(logging.String("remote", r.RemoteAddr))

	c := &client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(h.limit, h.burst),
		log:     log,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.mu.Unlock()
	log.Info(ctx, "stream client connected")

	done := make(chan struct{})
	go c.writeLoop(done)
	c.readLoop()

	h.remove(c)
	<-done
	log.Info(ctx, "stream client disconnected")
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

func (c *client) readLoop() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writeLoop(done chan<- struct{}) {
	defer close(done)
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.log.Debug(context.Background(), "stream write failed", logging.Err(err))
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}
