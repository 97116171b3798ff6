package sse

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kbukum/ssecast/logger"
)

var (
	// ErrHubClosed is returned by Register after Stop.
	ErrHubClosed = errors.New("sse: hub closed")

	// ErrDuplicateClient is returned when a client ID is already registered.
	ErrDuplicateClient = errors.New("sse: duplicate client id")
)

// Hub tracks open streams and fans published payloads out to them.
type Hub struct {
	cfg      Config
	clients  map[string]*Client
	stopped  bool
	mu       sync.RWMutex
	log      *logger.Logger
	observer Observer
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithLogger sets the hub logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

// WithObserver registers a lifecycle observer (metrics).
func WithObserver(o Observer) HubOption {
	return func(h *Hub) {
		if o != nil {
			h.observer = o
		}
	}
}

// NewHub creates an empty hub.
func NewHub(cfg Config, opts ...HubOption) *Hub {
	cfg.ApplyDefaults()
	h := &Hub{
		cfg:      cfg,
		clients:  make(map[string]*Client),
		log:      logger.GetGlobalLogger(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.WithComponent("sse-hub")
	return h
}

// Config returns the hub configuration with defaults applied.
func (h *Hub) Config() Config { return h.cfg }

// Register adds an open client.
func (h *Hub) Register(c *Client) error {
	if c.Closed() {
		return fmt.Errorf("sse: register %s: client closed", c.id)
	}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return ErrHubClosed
	}
	if _, exists := h.clients[c.id]; exists {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateClient, c.id)
	}
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.observer.ClientAdded()
	h.log.Debug("Client registered", logger.Fields(
		logger.FieldClientID, c.id,
		logger.FieldSubscribers, total,
	))
	return nil
}

// Unregister removes and closes a client. Unknown or already removed
// clients are closed and otherwise ignored.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	removed := h.remove(c)
	total := len(h.clients)
	h.mu.Unlock()

	c.Close()
	if !removed {
		return
	}
	h.observer.ClientRemoved(false)
	h.log.Debug("Client unregistered", logger.Fields(
		logger.FieldClientID, c.id,
		logger.FieldSubscribers, total,
	))
}

// remove deletes c if it is the registered instance for its ID. Callers hold mu.
func (h *Hub) remove(c *Client) bool {
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		return true
	}
	return false
}

// Publish offers data to every registered client and returns how many
// accepted it. Clients that cannot accept (closed or full) are evicted.
func (h *Hub) Publish(data []byte) int {
	h.mu.Lock()
	delivered := 0
	var evicted []*Client
	for _, c := range h.clients {
		if c.Send(data) {
			delivered++
			continue
		}
		h.remove(c)
		c.Close()
		evicted = append(evicted, c)
	}
	total := len(h.clients)
	h.mu.Unlock()

	for _, c := range evicted {
		h.observer.ClientRemoved(true)
		h.log.Warn("Client evicted, outbound buffer full", logger.Fields(
			logger.FieldClientID, c.id,
			"buffer_size", c.bufferSize,
		))
	}
	h.log.Debug("Broadcast sent", logger.Fields(
		"delivered", delivered,
		logger.FieldSubscribers, total,
		logger.FieldSize, len(data),
	))
	return delivered
}

// Stop closes every client and rejects further registrations. Safe to call
// multiple times.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	closed := make([]*Client, 0, len(h.clients))
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
		closed = append(closed, c)
	}
	h.mu.Unlock()

	for range closed {
		h.observer.ClientRemoved(false)
	}
	h.log.Debug("All clients closed during shutdown", logger.Fields("closed", len(closed)))
}

// Stopped reports whether Stop has been called.
func (h *Hub) Stopped() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stopped
}

// ClientCount returns the number of open streams.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ClientIDs returns the IDs of all open streams.
func (h *Hub) ClientIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// Client returns a client by ID, or nil if not found.
func (h *Hub) Client(id string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[id]
}

var _ Broadcaster = (*Hub)(nil)
