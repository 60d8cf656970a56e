package bus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// simpleEvent is the Event implementation used by all engine publishers.
type simpleEvent struct {
	typeStr string
	source  string
	ts      time.Time
	data    any
}

func (e simpleEvent) Type() string         { return e.typeStr }
func (e simpleEvent) Source() string       { return e.source }
func (e simpleEvent) Timestamp() time.Time { return e.ts }
func (e simpleEvent) Data() any            { return e.data }

// NewEvent builds an Event carrying the given payload.
func NewEvent(typ, src string, ts time.Time, data any) Event {
	return simpleEvent{typeStr: typ, source: src, ts: ts, data: data}
}

type subscription struct {
	id        string
	eventType string
	handler   EventHandler
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }
func (s *subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// inMemoryBus delivers events synchronously to subscribed handlers.
type inMemoryBus struct {
	mu sync.RWMutex
	// handlers: eventType -> subID -> subscription
	handlers map[string]map[string]*subscription
}

// New creates an in-memory EventBus.
func New() EventBus {
	return &inMemoryBus{handlers: make(map[string]map[string]*subscription)}
}

func (b *inMemoryBus) Publish(event Event) error {
	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.handlers[event.Type()])+len(b.handlers[Wildcard]))
	for _, s := range b.handlers[event.Type()] {
		subs = append(subs, s)
	}
	if event.Type() != Wildcard {
		for _, s := range b.handlers[Wildcard] {
			subs = append(subs, s)
		}
	}
	b.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := s.handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]*subscription)
	}
	id := uuid.NewString()
	s := &subscription{id: id, eventType: eventType, handler: handler}
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if mm, ok := b.handlers[eventType]; ok {
			delete(mm, id)
		}
	}
	b.handlers[eventType][id] = s
	return s
}

func (b *inMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string]map[string]*subscription)
}
