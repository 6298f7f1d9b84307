package sse

import (
	"path/filepath"
	"sync"

	"github.com/skillsenselab/vbdiar/logger"
)

// Client is one connected event-stream consumer, usually a browser or
// CLI watching a job.
type Client struct {
	id       string
	metadata map[string]string
	events   chan []byte
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMetadata adds a metadata key-value pair to the client.
func WithMetadata(key, value string) ClientOption {
	return func(c *Client) {
		if c.metadata == nil {
			c.metadata = make(map[string]string)
		}
		c.metadata[key] = value
	}
}

// WithJobID tags the client with the job it is watching.
func WithJobID(jobID string) ClientOption {
	return WithMetadata("job_id", jobID)
}

// NewClient creates a client with a buffered event channel. The buffer
// absorbs bursts; a consumer that falls further behind loses events.
func NewClient(id string, opts ...ClientOption) *Client {
	c := &Client{
		id:       id,
		metadata: make(map[string]string),
		events:   make(chan []byte, 256),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the client's unique identifier.
func (c *Client) ID() string {
	return c.id
}

// Metadata returns all client metadata.
func (c *Client) Metadata() map[string]string {
	return c.metadata
}

// GetMetadata returns a specific metadata value.
func (c *Client) GetMetadata(key string) string {
	return c.metadata[key]
}

// JobID returns the job the client is watching, if any.
func (c *Client) JobID() string {
	return c.metadata["job_id"]
}

// Events returns the channel for receiving events.
func (c *Client) Events() <-chan []byte {
	return c.events
}

// Send queues data for the client. Returns false when the client's
// buffer is full; the event is dropped rather than stalling the hub.
func (c *Client) Send(data []byte) bool {
	select {
	case c.events <- data:
		return true
	default:
		logger.Warn("[SSE] client buffer full, dropping event",
			logger.Fields("client_id", c.id))
		return false
	}
}

// Close closes the client's event channel.
func (c *Client) Close() {
	close(c.events)
}

// Hub routes job events to the clients watching them. Registration and
// broadcasting are serialized through Run's event loop.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex // guards clients for reads outside the loop
}

// Message is one broadcast: the event data and a glob pattern selecting
// the client IDs that receive it.
type Message struct {
	Pattern string
	Data    []byte
}

// NewHub creates an idle hub. Call Run to start routing.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It blocks until Stop is called, so it
// belongs in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			logger.Debug("[SSE] client registered", logger.Fields(
				"client_id", client.id,
				"total_clients", len(h.clients)))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.Close()
			}
			h.mu.Unlock()
			logger.Debug("[SSE] client unregistered", logger.Fields(
				"client_id", client.id,
				"total_clients", len(h.clients)))

		case msg := <-h.broadcast:
			h.deliver(msg.Pattern, msg.Data)
		}
	}
}

// Stop shuts the hub down, disconnecting every client and causing Run
// to return. Safe to call multiple times.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.Close()
		delete(h.clients, id)
	}
	logger.Debug("[SSE] all clients closed on shutdown")
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToPattern sends data to every client whose ID matches the
// glob pattern, e.g. "job:abc123:*" for all watchers of one job.
func (h *Hub) BroadcastToPattern(pattern string, data []byte) {
	h.broadcast <- &Message{
		Pattern: pattern,
		Data:    data,
	}
}

// deliver fans a broadcast out to matching clients. Runs on the hub's
// event loop goroutine.
func (h *Hub) deliver(pattern string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for clientID, client := range h.clients {
		matched, err := filepath.Match(pattern, clientID)
		if err != nil {
			logger.Error("[SSE] bad broadcast pattern", logger.Fields(
				"pattern", pattern,
				"error", err.Error()))
			continue
		}
		if matched && client.Send(data) {
			sent++
		}
	}

	logger.Debug("[SSE] broadcast delivered", logger.Fields(
		"pattern", pattern,
		"sent", sent,
		"total_clients", len(h.clients)))
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var _ Broadcaster = (*Hub)(nil)
