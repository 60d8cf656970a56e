package bus

import "time"

// Event is a committed-state notification. Payloads are the typed
// structs published by the registry and engine packages.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

// EventHandler consumes one event. Handlers run synchronously on the
// publisher's goroutine; a returned error is collected by Publish but
// does not stop delivery to other handlers.
type EventHandler func(Event) error

// Subscription is a handle for one registered handler.
type Subscription interface {
	ID() string
	EventType() string
	Cancel()
}

// EventBus delivers committed-state notifications to subscribers.
type EventBus interface {
	// Publish delivers the event to every handler subscribed to its
	// type and to wildcard subscribers.
	Publish(event Event) error
	// Subscribe registers a handler for one event type. The wildcard
	// type "*" receives every event.
	Subscribe(eventType string, handler EventHandler) Subscription
	// Close cancels all subscriptions.
	Close()
}

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"
