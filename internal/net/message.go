package net

import "encoding/json"

// Message is the JSON envelope exchanged between the hub and its peers.
// Exactly one payload interpretation applies per Type.
type Message struct {
	Type     string          `json:"type"`
	Topic    string          `json:"topic,omitempty"`
	ClientID string          `json:"client_id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Clear    bool            `json:"clear,omitempty"`
}

const (
	// MsgHello is the first message a joining client sends; ClientID set.
	MsgHello = "hello"
	// MsgSnapshot carries the whole document to a late joiner.
	MsgSnapshot = "snapshot"
	// MsgPresence carries one presence envelope (Topic, Payload, Clear).
	MsgPresence = "presence"
	// MsgOp carries one replicated document operation.
	MsgOp = "op"
	// MsgClientGone announces a disconnected peer so everyone drops its
	// presence values. This is the only presence expiry there is.
	MsgClientGone = "client_gone"
)
