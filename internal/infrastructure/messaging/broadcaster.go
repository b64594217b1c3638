// Package messaging distributes state-change events from the engine's
// managers to in-process subscribers and connected websocket clients.
package messaging

import (
	"sync"
	"time"

	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
)

// Topic names a class of state-change events.
type Topic string

const (
	TopicSession     Topic = "session"
	TopicGeo         Topic = "geo"
	TopicPreferences Topic = "preferences"
)

// Event is one published state change. Payload is a snapshot value owned
// by the subscriber once delivered.
type Event struct {
	Topic   Topic     `json:"topic"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

type subscriber struct {
	id     uint64
	topics map[Topic]bool
	ch     chan Event
}

// Broadcaster fans events out to subscribers. Delivery is non-blocking:
// a subscriber whose buffer is full misses the event and is expected to
// re-read current state through the query surface.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*subscriber
	logger *logging.ChanneledLogger
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(logger *logging.ChanneledLogger) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[uint64]*subscriber),
		logger: logger,
	}
}

// Subscribe registers interest in the given topics (all topics when none
// are named) and returns the delivery channel plus an unsubscribe func.
// The channel is closed on unsubscribe.
func (b *Broadcaster) Subscribe(topics ...Topic) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscriber{
		id: b.nextID,
		ch: make(chan Event, 16),
	}
	if len(topics) > 0 {
		sub.topics = make(map[Topic]bool, len(topics))
		for _, t := range topics {
			sub.topics[t] = true
		}
	}
	b.subs[sub.id] = sub

	id := sub.id
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// Publish delivers an event to every matching subscriber.
func (b *Broadcaster) Publish(topic Topic, payload any) {
	event := Event{Topic: topic, Payload: payload, At: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.topics != nil && !sub.topics[topic] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.logger.Debug().Warn("Dropping event for slow subscriber", "topic", string(topic), "subscriberId", sub.id)
		}
	}
}

// SubscriberCount reports the number of active subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
