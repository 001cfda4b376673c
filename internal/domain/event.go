package domain

import (
	"encoding/json"
	"fmt"
)

// EventType names a frame on the chat socket
type EventType string

const (
	// Inbound
	EventIAmHere EventType = "iamhere"
	EventMessage EventType = "message"

	// Outbound
	EventNewMessage EventType = "new message"
	EventHistory    EventType = "history"
	EventWhosHere   EventType = "whoshere"
)

// Event is the envelope used in both directions
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubmitPayload is the body of an inbound "message" event.
// Name is whatever the client claims to be and is never trusted.
type SubmitPayload struct {
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
}

// Notice is a "new message" payload that is not a stored chat line
type Notice struct {
	Message   string `json:"message"`
	From      string `json:"from,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// WhosHerePayload is the presence snapshot sent to one connection
type WhosHerePayload struct {
	Users Roster `json:"users"`
}

// EncodeEvent builds a wire frame from a type and payload
func EncodeEvent(t EventType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return json.Marshal(Event{Type: t, Payload: raw})
}

// IdentityFromPayload extracts the user id carried by an "iamhere" event.
// Clients send either a bare JSON string or a number.
func IdentityFromPayload(raw json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("decode iamhere payload: %w", err)
	}
	return n.String(), nil
}
