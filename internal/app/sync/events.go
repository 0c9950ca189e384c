package sync

import (
	"time"

	"backend/internal/app/message"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventTyping EventType = "typing"
)

// Event is one unit of the per-conversation change-feed. Delivery is
// at-least-once; consumers must merge idempotently, keyed by message id.
type Event struct {
	Type           EventType           `json:"type"`
	ConversationID string              `json:"conversation_id"`
	Message        *message.Message    `json:"message,omitempty"`
	MessageID      string              `json:"message_id,omitempty"`
	Reactions      message.ReactionMap `json:"reactions,omitempty"`
	Read           *bool               `json:"read,omitempty"`
	ParticipantID  string              `json:"participant_id,omitempty"`
	Active         bool                `json:"active,omitempty"`
	Timestamp      int64               `json:"timestamp"`
}

func now() int64 {
	return time.Now().UTC().Unix()
}

// EventsChannel names the change-feed for one conversation.
func EventsChannel(conversationID string) string {
	return "conv:" + conversationID + ":events"
}

// TypingChannel names the ephemeral presence sub-channel. Typing signals are
// never persisted; they exist only on the wire and in TTL state.
func TypingChannel(conversationID string) string {
	return "conv:" + conversationID + ":typing"
}
