package events

import (
	platformevents "canna_portal_backend/platform/events"
	"canna_portal_backend/platform/logger"
)

// InMemoryBus is the process-wide bus shared by the API and the worker.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// IDOf returns the stable id of an event built with NewBaseEvent.
var IDOf = platformevents.IDOf

// Subscribe registers handler for each of the given event kinds, keyed by
// their EventName. Pass zero values: Subscribe(bus, h, LeadAssigned{}).
func Subscribe(bus Bus, handler Handler, kinds ...Event) {
	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = kind.EventName()
	}
	platformevents.SubscribeAll(bus, handler, names...)
}
