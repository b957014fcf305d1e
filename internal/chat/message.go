package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message type identifiers on the chat wire protocol
const (
	MessageTypeChat    = "chat"
	MessageTypeHistory = "history"
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
	MessageTypeError   = "error"
	MessageTypeJoined  = "joined"
	MessageTypeLeft    = "left"
)

// Message is the envelope for everything sent over a chat socket
type Message struct {
	ID        string          `json:"id,omitempty"`
	Type      string          `json:"type"`
	Room      string          `json:"room,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates an envelope with a marshalled payload
func NewMessage(msgType, room string, payload interface{}) *Message {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Room:      room,
		Timestamp: time.Now().UTC(),
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			msg.Payload = data
		}
	}
	return msg
}

// NewErrorMessage creates an error envelope
func NewErrorMessage(code, detail string) *Message {
	return NewMessage(MessageTypeError, "", ErrorPayload{Code: code, Message: detail})
}

// ParsePayload unmarshals the payload into v
func (m *Message) ParsePayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}

// ChatPayload is the body of a chat message
type ChatPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Body     string `json:"body"`
}

// HistoryPayload carries recent room messages to a newly joined client
type HistoryPayload struct {
	Messages []ChatPayload `json:"messages"`
}

// PresencePayload announces a user joining or leaving a room
type PresencePayload struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Occupants int    `json:"occupants,omitempty"`
}

// ErrorPayload carries a protocol error to the client
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
