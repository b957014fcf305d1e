package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForumThread is a discussion thread, optionally tied to a game board
type ForumThread struct {
	ID       string  `gorm:"primaryKey;type:uuid" json:"id"`
	AuthorID string  `gorm:"not null;index" json:"author_id"`
	Author   User    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	GameID   *string `gorm:"index" json:"game_id,omitempty"`
	Game     *Game   `gorm:"foreignKey:GameID" json:"game,omitempty"`

	Title string `gorm:"not null" json:"title"`
	Body  string `gorm:"type:text;not null" json:"body"`

	ReplyCount int  `gorm:"default:0" json:"reply_count"`
	IsLocked   bool `gorm:"default:false" json:"is_locked"`
	IsPinned   bool `gorm:"default:false" json:"is_pinned"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *ForumThread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (ForumThread) TableName() string {
	return "forum_threads"
}

// ForumReply is a reply within a thread
type ForumReply struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	ThreadID string `gorm:"not null;index:idx_forum_replies_thread_created" json:"thread_id"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Body     string `gorm:"type:text;not null" json:"body"`

	CreatedAt time.Time      `gorm:"index:idx_forum_replies_thread_created" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *ForumReply) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (ForumReply) TableName() string {
	return "forum_replies"
}

// MatchmakingPost is a "looking for games" post
type MatchmakingPost struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	GameID   string `gorm:"not null;index" json:"game_id"`
	Game     Game   `gorm:"foreignKey:GameID" json:"game,omitempty"`

	Region   string `gorm:"index" json:"region"`
	Platform string `json:"platform"`
	Message  string `gorm:"type:text" json:"message"`

	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *MatchmakingPost) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (MatchmakingPost) TableName() string {
	return "matchmaking_posts"
}

// NewsArticle is an editorial news piece
type NewsArticle struct {
	ID       string  `gorm:"primaryKey;type:uuid" json:"id"`
	AuthorID string  `gorm:"not null;index" json:"author_id"`
	Author   User    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	GameID   *string `gorm:"index" json:"game_id,omitempty"`

	Title   string `gorm:"not null" json:"title"`
	Slug    string `gorm:"uniqueIndex;not null" json:"slug"`
	Summary string `gorm:"type:text" json:"summary"`
	Body    string `gorm:"type:text;not null" json:"body"`

	PublishedAt *time.Time `gorm:"index" json:"published_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *NewsArticle) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (NewsArticle) TableName() string {
	return "news_articles"
}

// ChatMessage is a persisted chat room message
type ChatMessage struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Room     string `gorm:"not null;index:idx_chat_messages_room_created" json:"room"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Body     string `gorm:"type:text;not null" json:"body"`

	CreatedAt time.Time `gorm:"index:idx_chat_messages_room_created" json:"created_at"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (ChatMessage) TableName() string {
	return "chat_messages"
}
