// Package chat provides the real-time room chat over WebSocket.
// Uses github.com/coder/websocket, the context-aware WebSocket library for Go.
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wavedash/arena/backend/internal/logger"
	"github.com/wavedash/arena/backend/internal/metrics"
	"github.com/wavedash/arena/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxMessageBody = 2000

// Hub maintains the set of active clients per room and broadcasts messages
type Hub struct {
	db *gorm.DB

	// Clients grouped by room name
	rooms map[string]map[*Client]struct{}
	mu    sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomMessage

	// Shutdown handling
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Stats
	totalConnections  atomic.Int64
	activeConnections atomic.Int64
	messagesSent      atomic.Int64
}

type roomMessage struct {
	room string
	data []byte
	// Persisted row, nil for presence/system frames
	record *models.ChatMessage
}

// NewHub creates a hub; Run must be called before accepting connections
func NewHub(db *gorm.DB) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		db:         db,
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan *roomMessage, 256),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Shutdown is called
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Shutdown stops the hub and closes every connection
func (h *Hub) Shutdown() {
	h.cancel()
	<-h.done
}

// Register queues a client for registration
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister queues a client for removal
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Broadcast sends a message to every client in a room and persists chat
// frames to the message log
func (h *Hub) Broadcast(msg *Message, record *models.ChatMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Error("chat broadcast marshal failed", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- &roomMessage{room: msg.Room, data: data, record: record}:
	case <-h.ctx.Done():
	}
}

// History loads the most recent limit messages for a room, oldest first
func (h *Hub) History(ctx context.Context, room string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []models.ChatMessage
	err := h.db.WithContext(ctx).
		Where("room = ?", room).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	// Reverse to chronological order
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// ValidRoom restricts room names to a sane charset and length
func ValidRoom(room string) bool {
	if room == "" || len(room) > 64 {
		return false
	}
	for _, r := range room {
		if !strings.ContainsRune("abcdefghijklmnopqrstuvwxyz0123456789-_", r) {
			return false
		}
	}
	return true
}

// RoomCount returns the number of connected clients in a room
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.rooms[client.Room]
	if !ok {
		clients = make(map[*Client]struct{})
		h.rooms[client.Room] = clients
	}
	clients[client] = struct{}{}
	h.mu.Unlock()

	h.totalConnections.Add(1)
	h.activeConnections.Add(1)
	metrics.Get().ChatConnectionsActive.WithLabelValues(client.Room).Inc()

	logger.Log.Info("chat client joined",
		zap.String("room", client.Room),
		zap.String("user_id", client.UserID),
	)
}

func (h *Hub) removeClient(client *Client) {
	var present bool
	remaining := 0

	h.mu.Lock()
	if clients, ok := h.rooms[client.Room]; ok {
		if _, present = clients[client]; present {
			delete(clients, client)
			h.activeConnections.Add(-1)
			metrics.Get().ChatConnectionsActive.WithLabelValues(client.Room).Dec()
		}
		remaining = len(clients)
		if remaining == 0 {
			delete(h.rooms, client.Room)
		}
	}
	h.mu.Unlock()

	client.Close()

	if present && remaining > 0 {
		// Delivered inline; removeClient already runs on the hub goroutine
		frame, err := json.Marshal(NewMessage(MessageTypeLeft, client.Room, PresencePayload{
			UserID:    client.UserID,
			Username:  client.Username,
			Occupants: remaining,
		}))
		if err == nil {
			h.deliver(&roomMessage{room: client.Room, data: frame})
		}
	}
}

func (h *Hub) deliver(msg *roomMessage) {
	if msg.record != nil {
		if err := h.db.Create(msg.record).Error; err != nil {
			logger.Log.Error("chat message persist failed",
				zap.String("room", msg.room),
				zap.Error(err),
			)
		}
		metrics.Get().ChatMessagesTotal.WithLabelValues(msg.room).Inc()
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[msg.room]))
	for client := range h.rooms[msg.room] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.enqueue(msg.data); err != nil {
			// Slow consumer; drop the connection rather than block the hub
			h.Unregister(client)
		} else {
			h.messagesSent.Add(1)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, clients := range h.rooms {
		for client := range clients {
			client.Close()
		}
		delete(h.rooms, room)
	}
}
