// Package events is an in-process pub/sub bus for chat turn lifecycle events.
// Subscribers get buffered channels; a slow subscriber loses its oldest
// events rather than blocking the publisher.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	Timestamp() time.Time
	TurnID() string
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Type string    `json:"type"`
	Time time.Time `json:"timestamp"`
	Turn string    `json:"turn_id"`
}

func (e BaseEvent) EventType() string    { return e.Type }
func (e BaseEvent) Timestamp() time.Time { return e.Time }
func (e BaseEvent) TurnID() string       { return e.Turn }

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType, turnID string) BaseEvent {
	return BaseEvent{Type: eventType, Time: time.Now(), Turn: turnID}
}

type subscriber struct {
	ch    chan Event
	types map[string]bool // empty means all types
}

func (s *subscriber) wants(eventType string) bool {
	return len(s.types) == 0 || s.types[eventType]
}

// EventBus fans events out to subscribers.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []*subscriber
	bufferSize  int
	dropped     atomic.Int64
	closed      bool
}

// New creates a bus whose subscriptions buffer bufferSize events.
func New(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &EventBus{bufferSize: bufferSize}
}

// Subscribe returns a channel receiving events of the given types, or of
// every type when none are given.
func (eb *EventBus) Subscribe(types ...string) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	sub := &subscriber{ch: make(chan Event, eb.bufferSize), types: make(map[string]bool, len(types))}
	for _, t := range types {
		sub.types[t] = true
	}
	if eb.closed {
		close(sub.ch)
		return sub.ch
	}
	eb.subscribers = append(eb.subscribers, sub)
	return sub.ch
}

// Unsubscribe removes and closes a subscription.
func (eb *EventBus) Unsubscribe(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	kept := eb.subscribers[:0]
	for _, sub := range eb.subscribers {
		if sub.ch == ch {
			close(sub.ch)
			continue
		}
		kept = append(kept, sub)
	}
	eb.subscribers = kept
}

// Publish delivers event without blocking. A nil bus is a no-op so callers
// can run without one.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return
	}
	for _, sub := range eb.subscribers {
		if sub.wants(event.EventType()) {
			eb.deliver(sub, event)
		}
	}
}

func (eb *EventBus) deliver(sub *subscriber, event Event) {
	select {
	case sub.ch <- event:
		return
	default:
	}
	// Full: drop the oldest event and retry once.
	select {
	case <-sub.ch:
		eb.dropped.Add(1)
	default:
	}
	select {
	case sub.ch <- event:
	default:
		eb.dropped.Add(1)
	}
}

// DroppedCount returns how many events were discarded.
func (eb *EventBus) DroppedCount() int64 {
	return eb.dropped.Load()
}

// Close closes the bus and every subscription.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return
	}
	eb.closed = true
	for _, sub := range eb.subscribers {
		close(sub.ch)
	}
	eb.subscribers = nil
}
