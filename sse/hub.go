package sse

import (
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/shadowkit/logger"
)

// Client is one connected stream subscribed to a topic.
type Client struct {
	id     string // topic + "/" + unique suffix
	topic  string
	events chan Event
	once   sync.Once
}

// NewClient creates a client for topic with room for buffer pending events.
func NewClient(topic string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 256
	}
	return &Client{
		id:     topic + "/" + uuid.NewString(),
		topic:  topic,
		events: make(chan Event, buffer),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// Topic returns the subscribed topic.
func (c *Client) Topic() string { return c.topic }

// Events returns the channel of pending events. It is closed when the
// client is unregistered or the hub stops.
func (c *Client) Events() <-chan Event { return c.events }

// send queues e; it reports false when the client is too slow.
func (c *Client) send(e Event) bool {
	select {
	case c.events <- e:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.events) })
}

type message struct {
	pattern string
	event   Event
}

// Hub fans events out to subscribed clients from a single goroutine.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	log        *logger.Logger
}

// NewHub creates a hub. Call Run in a goroutine before registering clients.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		log:        log.WithComponent("sse"),
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", logger.Fields("client_id", client.id, "total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.Fields("client_id", client.id, "total_clients", total))

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Stop closes every client and ends Run. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.close()
		delete(h.clients, id)
	}
}

// Register adds a client. Once it returns, every later Publish to the
// client's topic reaches it. On a stopped hub the client is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish sends e to all clients of topic.
func (h *Hub) Publish(topic string, e Event) {
	select {
	case h.broadcast <- message{pattern: topic + "/*", event: e}:
	case <-h.done:
	}
}

func (h *Hub) deliver(msg message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, client := range h.clients {
		matched, err := filepath.Match(msg.pattern, id)
		if err != nil {
			h.log.Error("bad topic pattern", logger.Fields("pattern", msg.pattern, logger.FieldError, err.Error()))
			return
		}
		if matched && !client.send(msg.event) {
			h.log.Warn("client buffer full, dropping event", logger.Fields("client_id", id, "seq", msg.event.Seq))
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var _ Publisher = (*Hub)(nil)
