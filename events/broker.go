package events

import (
	"sync"

	"github.com/rachel-multiverse/rachel-web-sub001/game"
)

// Envelope is what subscribers receive: the event plus the post-mutation
// snapshot of the game it belongs to
type Envelope struct {
	Name  string     `json:"name"`
	Event Event      `json:"event"`
	State game.State `json:"state"`
}

// subscriberBuffer is the per-subscriber channel depth; on overflow the
// oldest envelope is dropped, never the publisher blocked
const subscriberBuffer = 16

type subscriber struct {
	ch     chan Envelope
	closed bool
}

// Broker is a topic-per-game broadcaster. Delivery is best effort: slow
// consumers lose the oldest envelopes and can always re-fetch authoritative
// state from the engine.
type Broker struct {
	mu   sync.RWMutex
	subs map[string][]*subscriber
}

// NewBroker creates an empty broker
func NewBroker() *Broker {
	return &Broker{subs: make(map[string][]*subscriber)}
}

// Subscribe registers a new subscriber on the topic. The returned cancel
// function removes the subscription and closes the channel.
func (b *Broker) Subscribe(topic string) (<-chan Envelope, func()) {
	sub := &subscriber{ch: make(chan Envelope, subscriberBuffer)}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub.closed {
			return
		}
		sub.closed = true
		close(sub.ch)

		list := b.subs[topic]
		for i, s := range list {
			if s == sub {
				b.subs[topic] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(b.subs[topic]) == 0 {
			delete(b.subs, topic)
		}
	}
	return sub.ch, cancel
}

// Publish delivers the event with its snapshot to every subscriber of the
// topic, in publication order per topic
func (b *Broker) Publish(topic string, event Event, state game.State) {
	env := Envelope{Name: event.EventName(), Event: event, State: state}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs[topic] {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- env:
		default:
			// Full: drop the oldest and retry once
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- env:
			default:
			}
		}
	}
}

// SubscriberCount reports how many subscribers a topic has
func (b *Broker) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
