package memory

import (
	"context"
	"sync"

	"marketing-quiz-service/internal/domain"
)

// Hub is an in-process insert feed. It implements app.InsertFeed and
// app.InsertPublisher.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan domain.InsertEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan domain.InsertEvent]struct{})}
}

// Subscribe registers a listener. The caller must invoke the returned cancel
// function to avoid leaks.
func (h *Hub) Subscribe(_ context.Context) (<-chan domain.InsertEvent, func(), error) {
	ch := make(chan domain.InsertEvent, 8)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel, nil
}

// Publish fans event out without blocking. A full subscriber loses its
// oldest pending event; any event triggers the same full re-query.
func (h *Hub) Publish(_ context.Context, event domain.InsertEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
	return nil
}

// Subscribers is the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
