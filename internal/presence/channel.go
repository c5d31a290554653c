package presence

import (
	"encoding/json"
	"log"
	"sync"
)

// Callback receives one client's update on a channel. present is false
// when the value was cleared (explicitly or because the client left).
type Callback[T any] func(clientID string, value T, present bool)

// Channel is a typed per-topic broadcast primitive. One client publishes
// its own ephemeral value; everyone, publisher included, observes updates.
// Only the latest value per publisher matters: there is no queueing, no
// ordering beyond last write wins, and no durability.
type Channel[T any] struct {
	bus   *Bus
	topic string

	mu      sync.RWMutex
	local   T
	hasLoc  bool
	remotes map[string]T
	subs    map[int]subscriber[T]
	nextSub int
}

type subscriber[T any] struct {
	onLocal  Callback[T]
	onRemote Callback[T]
}

// NewChannel binds a typed channel to one topic on the bus. Each topic
// must be bound exactly once per bus.
func NewChannel[T any](bus *Bus, topic string) *Channel[T] {
	c := &Channel[T]{
		bus:     bus,
		topic:   topic,
		remotes: make(map[string]T),
		subs:    make(map[int]subscriber[T]),
	}
	bus.register(topic, c)
	return c
}

// Publish overwrites this client's value on the topic and notifies local
// subscribers synchronously. The remote broadcast is handed to the
// transport and never waited on.
func (c *Channel[T]) Publish(value T) {
	c.mu.Lock()
	c.local = value
	c.hasLoc = true
	subs := c.snapshotSubs()
	c.mu.Unlock()

	for _, s := range subs {
		if s.onLocal != nil {
			s.onLocal(c.bus.clientID, value, true)
		}
	}

	payload, err := json.Marshal(value)
	if err != nil {
		log.Printf("[PRESENCE] marshal %s failed: %v", c.topic, err)
		return
	}
	c.bus.send(Envelope{Topic: c.topic, ClientID: c.bus.clientID, Payload: payload})
}

// Clear removes this client's value. Safe to call when nothing was
// published; the clear is still broadcast so remotes cannot hold a stale
// value from a gesture that never completed.
func (c *Channel[T]) Clear() {
	c.mu.Lock()
	var zero T
	had := c.hasLoc
	c.local = zero
	c.hasLoc = false
	subs := c.snapshotSubs()
	c.mu.Unlock()

	if had {
		for _, s := range subs {
			if s.onLocal != nil {
				s.onLocal(c.bus.clientID, zero, false)
			}
		}
	}
	c.bus.send(Envelope{Topic: c.topic, ClientID: c.bus.clientID, Clear: true})
}

// Local returns this client's currently published value, if any.
func (c *Channel[T]) Local() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.local, c.hasLoc
}

// Each visits every present value, local first, then remotes in map order.
func (c *Channel[T]) Each(fn func(clientID string, value T)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.hasLoc {
		fn(c.bus.clientID, c.local)
	}
	for id, v := range c.remotes {
		fn(id, v)
	}
}

// Subscribe registers update callbacks. onLocal fires for this client's
// own publishes and clears, onRemote for every other client's. Either may
// be nil. The returned function unsubscribes.
func (c *Channel[T]) Subscribe(onLocal, onRemote Callback[T]) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = subscriber[T]{onLocal: onLocal, onRemote: onRemote}
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Channel[T]) snapshotSubs() []subscriber[T] {
	out := make([]subscriber[T], 0, len(c.subs))
	for _, s := range c.subs {
		out = append(out, s)
	}
	return out
}

func (c *Channel[T]) handleRemote(env Envelope) {
	var zero T
	if env.Clear {
		c.mu.Lock()
		_, had := c.remotes[env.ClientID]
		delete(c.remotes, env.ClientID)
		subs := c.snapshotSubs()
		c.mu.Unlock()
		if !had {
			return
		}
		for _, s := range subs {
			if s.onRemote != nil {
				s.onRemote(env.ClientID, zero, false)
			}
		}
		return
	}

	var value T
	if err := json.Unmarshal(env.Payload, &value); err != nil {
		log.Printf("[PRESENCE] bad payload on %s from %s: %v", c.topic, env.ClientID, err)
		return
	}
	c.mu.Lock()
	c.remotes[env.ClientID] = value
	subs := c.snapshotSubs()
	c.mu.Unlock()
	for _, s := range subs {
		if s.onRemote != nil {
			s.onRemote(env.ClientID, value, true)
		}
	}
}

func (c *Channel[T]) dropClient(clientID string) {
	var zero T
	c.mu.Lock()
	_, had := c.remotes[clientID]
	delete(c.remotes, clientID)
	subs := c.snapshotSubs()
	c.mu.Unlock()
	if !had {
		return
	}
	for _, s := range subs {
		if s.onRemote != nil {
			s.onRemote(clientID, zero, false)
		}
	}
}
