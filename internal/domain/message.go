package domain

import "time"

// ChatMessage is a persisted chat line. Timestamp is epoch milliseconds.
type ChatMessage struct {
	From      string `json:"from"`
	Body      string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// NewChatMessage stamps a message from the given user at the given instant
func NewChatMessage(from, body string, at time.Time) ChatMessage {
	return ChatMessage{
		From:      from,
		Body:      body,
		Timestamp: at.UnixMilli(),
	}
}

// Time returns the timestamp as a time.Time
func (m ChatMessage) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// OldestFirst returns a copy of msgs in reverse order.
// Stores return newest first; clients display oldest first.
func OldestFirst(msgs []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out
}
