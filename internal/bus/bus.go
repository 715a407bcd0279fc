// Package bus is the in-process publish/subscribe channel used to fan out
// configuration and read-state changes to mounted views without re-fetching
// from the readings store.
package bus

import "sync"

type Topic string

const (
	TopicRuleConfigChanged Topic = "rule-config-changed"
	TopicReadStateChanged  Topic = "read-state-changed"
)

type Event struct {
	Topic   Topic       `json:"topic"`
	Payload interface{} `json:"payload,omitempty"`
}

type Bus struct {
	mu   sync.Mutex
	subs map[Topic]map[*Subscription]bool
}

// Subscription receives events on C until Close is called. C is buffered;
// a subscriber that falls behind loses events rather than blocking the
// publisher.
type Subscription struct {
	C      chan Event
	bus    *Bus
	topics []Topic
	once   sync.Once
}

func New() *Bus {
	return &Bus{subs: make(map[Topic]map[*Subscription]bool)}
}

func (b *Bus) Subscribe(topics ...Topic) *Subscription {
	sub := &Subscription{C: make(chan Event, 16), bus: b, topics: topics}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range topics {
		if b.subs[t] == nil {
			b.subs[t] = make(map[*Subscription]bool)
		}
		b.subs[t][sub] = true
	}
	return sub
}

func (b *Bus) Publish(topic Topic, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[topic] {
		select {
		case sub.C <- Event{Topic: topic, Payload: payload}:
		default:
		}
	}
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		for _, t := range s.topics {
			delete(s.bus.subs[t], s)
		}
	})
}
