package realtime

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Client represents a single websocket client connection.
// We keep it minimal here; the actual network conn is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Event types pushed to subscribers.
const (
	EventKeyInserted = "key_inserted"
	EventKeyExpired  = "key_expired"
)

// Event is a cache change notification.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Key  string    `json:"key"`
	At   time.Time `json:"at"`
}

// NewEvent stamps a new event for key.
func NewEvent(typ, key string) Event {
	return Event{
		ID:   uuid.NewString(),
		Type: typ,
		Key:  key,
		At:   time.Now().UTC(),
	}
}

// DefaultQueueSize is the number of messages buffered per client.
const DefaultQueueSize = 64

// Hub maintains active subscriber connections and broadcasts cache events to them.
// Each client is written to by its own goroutine; Broadcast never waits on a client.
type Hub struct {
	mu        sync.RWMutex
	clients   map[Client]chan []byte
	queueSize int
	dropped   atomic.Int64
}

// NewHub returns an empty hub with DefaultQueueSize buffers.
func NewHub() *Hub {
	return NewHubSize(DefaultQueueSize)
}

// NewHubSize returns an empty hub buffering up to size messages per client.
func NewHubSize(size int) *Hub {
	if size < 1 {
		size = 1
	}
	return &Hub{clients: make(map[Client]chan []byte), queueSize: size}
}

// Register adds a client and starts its writer.
func (h *Hub) Register(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		return
	}
	queue := make(chan []byte, h.queueSize)
	h.clients[client] = queue
	go pump(client, queue)
}

// Unregister removes a client. Messages already queued are still handed to it.
func (h *Hub) Unregister(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if queue, ok := h.clients[client]; ok {
		close(queue)
		delete(h.clients, client)
	}
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages were discarded because a client's queue was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Broadcast queues a message for all clients, dropping it for any client that is behind.
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, queue := range h.clients {
		select {
		case queue <- message:
		default:
			h.dropped.Add(1)
		}
	}
}

func pump(client Client, queue <-chan []byte) {
	for msg := range queue {
		// A failed write is cleaned up by the handler owning the client.
		_ = client.Send(msg)
	}
}

// Publish encodes evt as JSON and broadcasts it.
func (h *Hub) Publish(evt Event) {
	if b, err := json.Marshal(evt); err == nil {
		h.Broadcast(b)
	}
}
