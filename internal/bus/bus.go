// Package bus is the in-process change notifier. The orchestrator publishes
// one event per completed pipeline phase or push operation; collaborators
// (the host app's UI bridge, the control API status view) subscribe.
package bus

import (
	"log/slog"
	"sync"
	"time"
)

// Topic identifies a class of change events.
type Topic string

// Topics emitted by the sync engine. Exactly one emission per completed
// phase or operation, never partial-phase emissions.
const (
	TopicTagsRefreshed     Topic = "tags.refreshed"
	TopicBagsRefreshed     Topic = "bags.refreshed"
	TopicProductsRefreshed Topic = "products.refreshed"
	TopicProductPushed     Topic = "product.pushed"
	TopicProductDeleted    Topic = "product.deleted"
	TopicTelemetryPushed   Topic = "telemetry.pushed"
)

// Event is one published change notification.
type Event struct {
	At      time.Time
	Payload any
	Topic   Topic
}

// Bus fans events out to subscribers. Publishing never blocks: a
// subscriber that stops draining loses events rather than stalling the
// sync pipeline.
type Bus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// New creates an event bus.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[int]chan Event),
	}
}

// Subscribe registers a new subscriber with the given channel buffer.
// The returned cancel function removes the subscription and closes the
// channel; it is safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	subID := b.nextID
	b.nextID++
	b.subs[subID] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[subID]; ok {
				delete(b.subs, subID)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking.
func (b *Bus) Publish(topic Topic, payload any) {
	event := Event{
		Topic:   topic,
		Payload: payload,
		At:      time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for subID, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("dropping event for slow subscriber", "topic", topic, "subscriber", subID)
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for subID, ch := range b.subs {
		delete(b.subs, subID)
		close(ch)
	}
}
