package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidRoom(t *testing.T) {
	for _, valid := range []string{"general", "sf6", "tekken-8", "kof_xv", "room42"} {
		assert.True(t, ValidRoom(valid), valid)
	}
	for _, invalid := range []string{"", "Room", "has space", "emoji🔥", "a/b",
		"this-room-name-is-way-too-long-to-be-accepted-as-a-valid-chat-room-name"} {
		assert.False(t, ValidRoom(invalid), invalid)
	}
}

func TestMessageEnvelopeRoundTrip(t *testing.T) {
	msg := NewMessage(MessageTypeChat, "sf6", ChatPayload{
		UserID:   "user-1",
		Username: "daigo",
		Body:     "ft10 anyone?",
	})
	require.NotEmpty(t, msg.ID)
	require.False(t, msg.Timestamp.IsZero())

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, MessageTypeChat, decoded.Type)
	assert.Equal(t, "sf6", decoded.Room)

	var payload ChatPayload
	require.NoError(t, decoded.ParsePayload(&payload))
	assert.Equal(t, "daigo", payload.Username)
	assert.Equal(t, "ft10 anyone?", payload.Body)
}

func TestErrorMessage(t *testing.T) {
	msg := NewErrorMessage("rate_limited", "too many messages")
	assert.Equal(t, MessageTypeError, msg.Type)

	var payload ErrorPayload
	require.NoError(t, msg.ParsePayload(&payload))
	assert.Equal(t, "rate_limited", payload.Code)
}
