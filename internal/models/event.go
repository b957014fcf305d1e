package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventStatus enumerates event display statuses. StatusAuto is only valid as
// an override value and means "defer to the time-derived status".
type EventStatus string

const (
	EventStatusAuto      EventStatus = "auto"
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// IsValidOverride reports whether s is usable as a stored status override
func (s EventStatus) IsValidOverride() bool {
	switch s {
	case EventStatusAuto, EventStatusUpcoming, EventStatusOngoing,
		EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// Event is a tournament, local, or online session.
// The displayed status is derived from the time bounds at read time; only the
// manual override is persisted.
type Event struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Location    string `json:"location"`
	IsOnline    bool   `gorm:"default:false" json:"is_online"`

	GameID string `gorm:"not null;index" json:"game_id"`
	Game   Game   `gorm:"foreignKey:GameID" json:"game,omitempty"`

	OrganizerID string `gorm:"not null;index" json:"organizer_id"`
	Organizer   User   `gorm:"foreignKey:OrganizerID" json:"organizer,omitempty"`

	StartAt time.Time `gorm:"not null;index" json:"start_at"`
	EndAt   time.Time `gorm:"not null;index" json:"end_at"`

	// Manual status override set by the organizer or a moderator
	StatusOverride EventStatus `gorm:"type:varchar(16);not null;default:auto" json:"status_override"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Event) TableName() string {
	return "events"
}
