package display

import (
	"sync"

	"water_tank/internal/metrics"
)

// subscriberBuffer is how many patches a subscriber may lag behind before it is dropped.
const subscriberBuffer = 256

// Hub fans board patches out to connected streams.
type Hub struct {
	mu      sync.Mutex
	clients map[chan Patch]struct{}
}

// NewHub constructs a hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[chan Patch]struct{})}
}

// Subscribe registers a new client channel.
func (h *Hub) Subscribe() chan Patch {
	if h == nil {
		return nil
	}
	ch := make(chan Patch, subscriberBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	metrics.AddBoardSubscribers(1)
	return ch
}

// Unsubscribe removes and closes a client channel.
func (h *Hub) Unsubscribe(ch chan Patch) {
	if h == nil || ch == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.clients[ch]
	delete(h.clients, ch)
	h.mu.Unlock()
	if ok {
		close(ch)
		metrics.AddBoardSubscribers(-1)
	}
}

// Publish delivers p to every subscriber without blocking. A subscriber whose
// buffer is full has fallen out of sync: it is dropped and its channel closed,
// so the reader knows to start over from the current rows.
func (h *Hub) Publish(p Patch) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- p:
		default:
			delete(h.clients, ch)
			close(ch)
			metrics.AddBoardSubscribers(-1)
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
