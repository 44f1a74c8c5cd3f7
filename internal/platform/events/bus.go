package events

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Event types emitted by the storefront services.
const (
	TypeCartUpdated    = "cart.updated"
	TypeOrderPlaced    = "order.placed"
	TypeProductChanged = "product.changed"
)

// Event describes a storefront state change delivered to subscribers after the
// change has been committed.
type Event struct {
	Type       string         `json:"type"`
	UserID     string         `json:"userId,omitempty"`
	EntityID   string         `json:"entityId,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Handler consumes a published event. Handlers must not mutate the event.
type Handler func(ctx context.Context, event Event)

// Bus fans committed events out to registered subscribers. Delivery is
// synchronous and in registration order; a subscriber is never invoked for a
// mutation that failed to commit.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers the handler and returns a function that removes it.
func (b *Bus) Subscribe(handler Handler) (unsubscribe func()) {
	if b == nil || handler == nil {
		return func() {}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers the event to every registered subscriber.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, event)
	}
}
