package presence

import (
	"encoding/json"
	"log"
	"sync"
)

// Envelope is the wire form of one presence update. Clear marks a removal
// of the publisher's value on the topic.
type Envelope struct {
	Topic    string          `json:"topic"`
	ClientID string          `json:"client_id"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Clear    bool            `json:"clear,omitempty"`
}

// topicHandler is implemented by Channel so the Bus can dispatch incoming
// envelopes without knowing payload types.
type topicHandler interface {
	handleRemote(env Envelope)
	dropClient(clientID string)
}

// Bus routes presence envelopes between typed channels and the transport.
// Each client owns one Bus; publishing is always done under the Bus's own
// client id, so per-publisher last-write-wins needs no coordination.
type Bus struct {
	clientID string
	mu       sync.RWMutex
	topics   map[string]topicHandler

	// Send forwards a local publish/clear to the transport. Nil until the
	// session is wired up (and in tests); local delivery never depends on it.
	Send func(env Envelope)
}

func NewBus(clientID string) *Bus {
	return &Bus{
		clientID: clientID,
		topics:   make(map[string]topicHandler),
	}
}

func (b *Bus) ClientID() string {
	return b.clientID
}

func (b *Bus) register(topic string, h topicHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.topics[topic]; exists {
		log.Printf("[PRESENCE] topic %q registered twice, replacing", topic)
	}
	b.topics[topic] = h
}

func (b *Bus) send(env Envelope) {
	if b.Send != nil {
		b.Send(env)
	}
}

// HandleRemote dispatches an envelope received from the transport to the
// channel registered for its topic. Envelopes from our own client id are
// ignored; local updates were already delivered at publish time.
func (b *Bus) HandleRemote(env Envelope) {
	if env.ClientID == b.clientID {
		return
	}
	b.mu.RLock()
	h := b.topics[env.Topic]
	b.mu.RUnlock()
	if h == nil {
		log.Printf("[PRESENCE] dropping envelope for unknown topic %q", env.Topic)
		return
	}
	h.handleRemote(env)
}

// DropClient removes every value a disconnected client published, on all
// topics. The transport calls this when the hub reports a client gone;
// there is no other expiry.
func (b *Bus) DropClient(clientID string) {
	b.mu.RLock()
	handlers := make([]topicHandler, 0, len(b.topics))
	for _, h := range b.topics {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		h.dropClient(clientID)
	}
}
