package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishReachesSubscribers(t *testing.T) {
	bus := NewBus()

	var received []Event
	bus.Subscribe(TopicBookingCreated, func(e Event) {
		received = append(received, e)
	})
	bus.Subscribe(TopicBookingCanceled, func(e Event) {
		t.Error("wrong topic delivered")
	})

	bus.Publish(Event{Type: TopicBookingCreated, RoomID: 3})

	assert.Len(t, received, 1)
	assert.Equal(t, int64(3), received[0].RoomID)
	assert.False(t, received[0].CreatedAt.IsZero())
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus()
	// Must not panic.
	bus.Publish(Event{Type: TopicExceptionDecided, CreatedAt: time.Now()})
}

func TestBus_MultipleHandlers(t *testing.T) {
	bus := NewBus()

	count := 0
	for i := 0; i < 3; i++ {
		bus.Subscribe(TopicBookingCreated, func(Event) { count++ })
	}
	bus.Publish(Event{Type: TopicBookingCreated})

	assert.Equal(t, 3, count)
}
