// Package events provides the in-process event bus lead, affiliate and
// notification modules talk through.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName is the routing name, e.g. "leads.stage.changed".
	EventName() string
	OccurredAt() time.Time
}

// Identified is implemented by events that carry a stable id. The id
// survives forwarding so consumers can drop redeliveries.
type Identified interface {
	EventID() uuid.UUID
}

// BaseEvent carries the id and timestamp shared by all events.
type BaseEvent struct {
	ID        uuid.UUID `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// EventID returns the id assigned by NewBaseEvent, or uuid.Nil for an
// event built without one.
func (e BaseEvent) EventID() uuid.UUID {
	return e.ID
}

// NewBaseEvent stamps a fresh id and the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{ID: uuid.New(), Timestamp: time.Now()}
}

// IDOf returns the event's id, or a new one when it has none.
func IDOf(event Event) uuid.UUID {
	if ided, ok := event.(Identified); ok && ided.EventID() != uuid.Nil {
		return ided.EventID()
	}
	return uuid.New()
}

// Handler processes events of a specific type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc is an adapter to allow ordinary functions to be used as handlers.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish runs the event's handlers in the background.
	Publish(ctx context.Context, event Event)

	// PublishSync runs the handlers and returns the first error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers handler under eventName, which must match
	// Event.EventName().
	Subscribe(eventName string, handler Handler)
}

// SubscribeAll registers handler for each of the named events.
func SubscribeAll(bus Bus, handler Handler, eventNames ...string) {
	for _, name := range eventNames {
		bus.Subscribe(name, handler)
	}
}
