package chat

import (
	"os"
	"strings"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/wavedash/arena/backend/internal/logger"
	"github.com/wavedash/arena/backend/internal/util"
	"go.uber.org/zap"
)

// ServeWS upgrades an authenticated request to a chat connection for the
// :room path parameter. History is replayed before live frames start.
func (h *Hub) ServeWS(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	room := c.Param("room")
	if !ValidRoom(room) {
		util.RespondBadRequest(c, "invalid room name")
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(),
	})
	if err != nil {
		logger.Log.Warn("websocket accept failed",
			zap.String("room", room),
			zap.Error(err),
		)
		return
	}

	client := NewClient(h, conn, user.ID, user.Username, room)
	h.Register(client)

	// Replay recent messages before live traffic
	if rows, err := h.History(c.Request.Context(), room, 50); err == nil && len(rows) > 0 {
		history := HistoryPayload{Messages: make([]ChatPayload, 0, len(rows))}
		for _, row := range rows {
			history.Messages = append(history.Messages, ChatPayload{
				UserID: row.AuthorID,
				Body:   row.Body,
			})
		}
		client.sendMessage(NewMessage(MessageTypeHistory, room, history))
	}

	h.Broadcast(NewMessage(MessageTypeJoined, room, PresencePayload{
		UserID:    user.ID,
		Username:  user.Username,
		Occupants: h.RoomCount(room),
	}), nil)

	go client.WritePump()
	go client.ReadPump()
}

// originPatterns returns allowed websocket origins, comma-separated in
// CHAT_ALLOWED_ORIGINS. Defaults to localhost for development.
func originPatterns() []string {
	raw := os.Getenv("CHAT_ALLOWED_ORIGINS")
	if raw == "" {
		return []string{"localhost:*", "127.0.0.1:*"}
	}
	parts := strings.Split(raw, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}
