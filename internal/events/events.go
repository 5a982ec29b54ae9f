// Package events is the in-process pub/sub channel that replaces the old
// ambient cross-tab broadcast: views and caches subscribe explicitly, and the
// scheduling engine stays stateless and callback-free.
package events

import (
	"sync"
	"time"
)

// Topics published by the portal.
const (
	TopicBookingCreated   = "booking.created"
	TopicBookingCanceled  = "booking.canceled"
	TopicBookingReminder  = "booking.reminder"
	TopicExceptionDecided = "exception.decided"
)

// Event represents a lightweight domain event. Detail carries
// type-specific context, such as the decision status of a moderated
// exception request.
type Event struct {
	Type      string
	RoomID    int64
	UserID    int64
	Day       time.Time
	Reference string
	Detail    string
	CreatedAt time.Time
}

// Handler reacts to an event.
type Handler func(event Event)

// Bus provides in-process pub/sub for events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		handler(event)
	}
}
