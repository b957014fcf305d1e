package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/wavedash/arena/backend/internal/logger"
	"github.com/wavedash/arena/backend/internal/models"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Read deadline; clients must ping within this interval
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 32 * 1024

	sendBufferSize = 64

	// Messages per second a single client may send
	clientMessageRate  = 5
	clientMessageBurst = 10
)

// Client represents a single WebSocket connection in a room
type Client struct {
	conn *websocket.Conn
	hub  *Hub

	UserID   string
	Username string
	Room     string

	send chan []byte

	limiter *tokenLimiter

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// tokenLimiter is a per-client token bucket for inbound frames
type tokenLimiter struct {
	tokens   float64
	max      float64
	refill   float64
	lastTime time.Time
	mu       sync.Mutex
}

func newTokenLimiter(perSecond, burst int) *tokenLimiter {
	return &tokenLimiter{
		tokens:   float64(burst),
		max:      float64(burst),
		refill:   float64(perSecond),
		lastTime: time.Now(),
	}
}

func (l *tokenLimiter) allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.tokens += now.Sub(l.lastTime).Seconds() * l.refill
	l.lastTime = now
	if l.tokens > l.max {
		l.tokens = l.max
	}
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// NewClient wraps an accepted connection for a room
func NewClient(hub *Hub, conn *websocket.Conn, userID, username, room string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:     conn,
		hub:      hub,
		UserID:   userID,
		Username: username,
		Room:     room,
		send:     make(chan []byte, sendBufferSize),
		limiter:  newTokenLimiter(clientMessageRate, clientMessageBurst),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ReadPump pumps frames from the connection into the hub
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		readCtx, readCancel := context.WithTimeout(c.ctx, pongWait)
		_, data, err := c.conn.Read(readCtx)
		readCancel()

		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Log.Info("chat client disconnected",
					zap.String("user_id", c.UserID),
					zap.String("room", c.Room),
				)
			} else if c.ctx.Err() == nil {
				logger.Log.Warn("chat read error",
					zap.String("user_id", c.UserID),
					zap.Error(err),
				)
			}
			return
		}

		if !c.limiter.allow() {
			c.sendMessage(NewErrorMessage("rate_limited", "too many messages, slow down"))
			continue
		}

		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			c.sendMessage(NewErrorMessage("invalid_json", "failed to parse message"))
			continue
		}

		c.handleMessage(&message)
	}
}

// WritePump pumps queued frames to the connection and keeps it alive
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "server shutdown")
			return

		case data, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "closing")
				return
			}

			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(message *Message) {
	switch message.Type {
	case MessageTypePing, "heartbeat":
		c.sendMessage(NewMessage(MessageTypePong, c.Room, nil))

	case MessageTypeChat:
		var payload ChatPayload
		if err := message.ParsePayload(&payload); err != nil {
			c.sendMessage(NewErrorMessage("invalid_payload", "failed to parse chat payload"))
			return
		}
		body := strings.TrimSpace(payload.Body)
		if body == "" {
			c.sendMessage(NewErrorMessage("empty_message", "message body is required"))
			return
		}
		if len(body) > maxMessageBody {
			c.sendMessage(NewErrorMessage("message_too_long",
				fmt.Sprintf("message body exceeds %d characters", maxMessageBody)))
			return
		}

		// Identity comes from the authenticated connection, never the frame
		out := NewMessage(MessageTypeChat, c.Room, ChatPayload{
			UserID:   c.UserID,
			Username: c.Username,
			Body:     body,
		})
		c.hub.Broadcast(out, &models.ChatMessage{
			Room:     c.Room,
			AuthorID: c.UserID,
			Body:     body,
		})

	default:
		c.sendMessage(NewErrorMessage("unknown_type",
			fmt.Sprintf("unknown message type: %s", message.Type)))
	}
}

// sendMessage marshals and enqueues an envelope for this client only
func (c *Client) sendMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	_ = c.enqueue(data)
}

// enqueue adds a frame to the send buffer without blocking the hub
func (c *Client) enqueue(data []byte) error {
	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return fmt.Errorf("client shutting down")
	default:
		return fmt.Errorf("send buffer full")
	}
}

// Close tears down the connection; safe to call more than once
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	if c.conn != nil {
		c.conn.Close(websocket.StatusNormalClosure, "closing")
	}
}
