package chat

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wavedash/arena/backend/internal/logger"
)

func TestRemoveClientBroadcastsLeft(t *testing.T) {
	require.NoError(t, logger.Initialize("error", filepath.Join(t.TempDir(), "chat.log")))

	hub := NewHub(nil)
	leaver := NewClient(hub, nil, "user-1", "daigo", "sf6")
	watcher := NewClient(hub, nil, "user-2", "tokido", "sf6")
	hub.addClient(leaver)
	hub.addClient(watcher)

	hub.removeClient(leaver)

	assert.Equal(t, 1, hub.RoomCount("sf6"))

	select {
	case data := <-watcher.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageTypeLeft, msg.Type)

		var payload PresencePayload
		require.NoError(t, msg.ParsePayload(&payload))
		assert.Equal(t, "user-1", payload.UserID)
		assert.Equal(t, "daigo", payload.Username)
		assert.Equal(t, 1, payload.Occupants)
	default:
		t.Fatal("remaining client received no left frame")
	}
}

func TestRemoveLastClientDropsRoom(t *testing.T) {
	require.NoError(t, logger.Initialize("error", filepath.Join(t.TempDir(), "chat.log")))

	hub := NewHub(nil)
	only := NewClient(hub, nil, "user-1", "daigo", "tekken-8")
	hub.addClient(only)
	require.Equal(t, 1, hub.RoomCount("tekken-8"))

	hub.removeClient(only)

	assert.Equal(t, 0, hub.RoomCount("tekken-8"))
	// No left frame once the room is empty
	select {
	case <-only.send:
		t.Fatal("departing client received its own left frame")
	default:
	}
}
