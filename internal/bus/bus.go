package bus

import "github.com/cskr/pubsub"

const defaultCapacity = 128

// Subscription is a receiving channel bound to one or more topics.
type Subscription = chan any

// MessageBus decouples the radio driver from the packet consumers.
type MessageBus interface {
	Publish(msg any, topics ...string)
	Subscribe(topics ...string) Subscription
	Unsubscribe(sub Subscription, topics ...string)
	Shutdown()
}

// PubSubBus is the cskr/pubsub backed implementation used by the daemon.
type PubSubBus struct {
	ps *pubsub.PubSub
}

func NewPubSubBus() *PubSubBus {
	return &PubSubBus{ps: pubsub.New(defaultCapacity)}
}

func (b *PubSubBus) Publish(msg any, topics ...string) {
	b.ps.TryPub(msg, topics...)
}

func (b *PubSubBus) Subscribe(topics ...string) Subscription {
	return b.ps.Sub(topics...)
}

func (b *PubSubBus) Unsubscribe(sub Subscription, topics ...string) {
	go b.ps.Unsub(sub, topics...)

	for range sub {
		// Drain until the broker closes the channel.
	}
}

func (b *PubSubBus) Shutdown() {
	b.ps.Shutdown()
}
