// Package events is an in-process pub/sub for booking outcomes.
package events

import (
	"encoding/json"
	"sync"
	"time"
)

// Event types published by the booking gateway.
const (
	BookingSucceeded = "booking.succeeded"
	BookingFailed    = "booking.failed"
)

// Event is a lightweight domain event.
type Event struct {
	ID        string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Handler reacts to an event.
type Handler func(event Event) error

// ErrorHandler receives handler failures.
type ErrorHandler func(event Event, err error)

// Bus provides in-process pub/sub for events.
type Bus struct {
	subscribers map[string][]Handler
	onError     ErrorHandler
	mu          sync.RWMutex
	pending     sync.WaitGroup
}

// NewBus constructs an empty bus. onError may be nil.
func NewBus(onError ErrorHandler) *Bus {
	return &Bus{subscribers: make(map[string][]Handler), onError: onError}
}

// Subscribe registers a handler for the given event types.
func (b *Bus) Subscribe(handler Handler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range eventTypes {
		b.subscribers[t] = append(b.subscribers[t], handler)
	}
}

// SubscribeAsync registers a handler that runs on its own goroutine, so a
// slow handler does not hold up Publish. Failures still reach the error handler.
func (b *Bus) SubscribeAsync(handler Handler, eventTypes ...string) {
	b.Subscribe(func(event Event) error {
		b.pending.Add(1)
		go func() {
			defer b.pending.Done()
			if err := handler(event); err != nil && b.onError != nil {
				b.onError(event, err)
			}
		}()
		return nil
	}, eventTypes...)
}

// Wait blocks until every async handler started so far has returned.
func (b *Bus) Wait() {
	b.pending.Wait()
}

// Publish notifies subscribers of the event type. Handlers registered with
// Subscribe run synchronously.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil && b.onError != nil {
			b.onError(event, err)
		}
	}
}

// PublishJSON marshals payload and publishes it under eventType.
func (b *Bus) PublishJSON(id, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.Publish(Event{ID: id, Type: eventType, Payload: data})
	return nil
}
