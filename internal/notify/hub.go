package notify

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// Hub keeps per-player subscriber channels in memory. Slow subscribers miss
// events instead of blocking the publisher.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	closed      bool
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe returns a channel of the player's events and a cancel func that
// unregisters and closes it.
func (h *Hub) Subscribe(playerID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.subscribers[playerID] == nil {
		h.subscribers[playerID] = make(map[chan Event]struct{})
	}
	h.subscribers[playerID][ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[playerID][ch]; !ok {
			return
		}
		delete(h.subscribers[playerID], ch)
		if len(h.subscribers[playerID]) == 0 {
			delete(h.subscribers, playerID)
		}
		close(ch)
	}
}

// Close ends every subscription. Later subscribers get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for playerID, set := range h.subscribers {
		for ch := range set {
			close(ch)
		}
		delete(h.subscribers, playerID)
	}
	h.closed = true
}

func (h *Hub) Publish(_ context.Context, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[event.PlayerID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (h *Hub) SubscriberCount(playerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[playerID])
}
