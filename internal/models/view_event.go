package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentType tags which kind of entity a view or report points at
type ContentType string

const (
	ContentTypeNews        ContentType = "news"
	ContentTypePost        ContentType = "post"
	ContentTypeEvent       ContentType = "event"
	ContentTypeForumThread ContentType = "forum_thread"
	ContentTypeMatchmaking ContentType = "matchmaking"
)

// IsValid reports whether t is a known content type
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeNews, ContentTypePost, ContentTypeEvent,
		ContentTypeForumThread, ContentTypeMatchmaking:
		return true
	}
	return false
}

// ViewEvent is one deduplicated content view. Rows are append-only: never
// updated, never deleted.
//
// WindowBucket is ViewedAt truncated to the 15-minute epoch. The unique index
// on (dedup_hash, window_bucket) closes the check-then-insert race: a losing
// concurrent insert hits the constraint and is reported as skipped.
type ViewEvent struct {
	ID             string      `gorm:"primaryKey;type:uuid" json:"id"`
	ContentID      string      `gorm:"not null;index:idx_view_events_content" json:"content_id"`
	ContentType    ContentType `gorm:"type:varchar(32);not null;index:idx_view_events_content" json:"content_type"`
	ViewerIdentity string      `gorm:"not null" json:"viewer_identity"`
	UserAgent      string      `gorm:"type:text" json:"-"`
	DedupHash      string      `gorm:"type:varchar(64);not null;index;uniqueIndex:ux_view_events_hash_bucket" json:"-"`
	WindowBucket   int64       `gorm:"not null;uniqueIndex:ux_view_events_hash_bucket" json:"-"`
	ViewedAt       time.Time   `gorm:"not null;index" json:"viewed_at"`
	CreatedAt      time.Time   `json:"created_at"`
}

func (v *ViewEvent) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (ViewEvent) TableName() string {
	return "view_events"
}
