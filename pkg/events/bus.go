// Package events delivers leadership change notifications to subscribers
// on fixed topic names, isolating the election engine from subscriber
// failures.
package events

import (
	"sort"
	"sync"

	"github.com/coordkit/leaderelection/pkg/logging"
)

// Topic names bound by subscribers. Fixed strings so subscribers can bind
// without importing engine types.
const (
	TopicElected = "leader.elected"
	TopicLost    = "leader.lost"
)

// Event is the payload delivered on both topics.
type Event struct {
	LeaseName string
}

// Handler is a subscriber callback. Panics inside Handler are recovered
// and logged; they never propagate back into the publisher.
type Handler func(Event)

// Bus delivers events to subscribers by topic, fire-and-forget.
type Bus interface {
	// Subscribe registers handler for topic. Returns an unsubscribe func.
	Subscribe(topic string, handler Handler) (unsubscribe func())

	// Publish delivers event to every current subscriber of topic.
	// Publish never returns an error and never propagates a subscriber
	// failure back to the caller; subscriber failures are isolated and
	// logged.
	Publish(topic string, event Event)
}

// InProcessBus is an in-memory Bus for a single process. It is the
// concrete binding used when no external event-dispatch bus is wired in
// by the host application.
type InProcessBus struct {
	log logging.Logger

	mu          sync.RWMutex
	subscribers map[string]map[int]Handler
	nextID      int
}

// NewInProcessBus creates an empty in-process bus.
func NewInProcessBus() *InProcessBus {
	return &InProcessBus{
		log:         *logging.WithComponent(logging.LogTypeEvents, "bus"),
		subscribers: make(map[string]map[int]Handler),
	}
}

// Subscribe registers handler for topic.
func (b *InProcessBus) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[int]Handler)
	}

	id := b.nextID
	b.nextID++
	b.subscribers[topic][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers[topic], id)
	}
}

// Publish delivers event to every subscriber of topic, synchronously and
// in registration order, recovering from and logging any subscriber panic
// so that one broken subscriber cannot prevent delivery to the others or
// propagate back into the caller.
func (b *InProcessBus) Publish(topic string, event Event) {
	b.mu.RLock()
	subs := b.subscribers[topic]
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(topic, h, event)
	}
}

func (b *InProcessBus) deliver(topic string, h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("subscriber panicked", logging.KeyLogType, logging.LogTypeEvents, "topic", topic, "panic", r)
		}
	}()
	h(event)
}
