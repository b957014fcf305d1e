package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an Arena community member
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	Region      string `json:"region"`

	PasswordHash *string `gorm:"type:text" json:"-"`

	// Main game shown on the profile
	MainGameID *string `gorm:"type:uuid" json:"main_game_id,omitempty"`
	MainGame   *Game   `gorm:"foreignKey:MainGameID" json:"main_game,omitempty"`

	// Private accounts require an accepted follow request before a follow
	// relationship is created
	IsPrivate   bool `gorm:"default:false" json:"is_private"`
	IsModerator bool `gorm:"default:false" json:"is_moderator"`

	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`

	LastActiveAt *time.Time `json:"last_active_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID so the model works on both Postgres and the
// sqlite driver used in tests
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// Game is a fighting game in the site roster
type Game struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	Developer string    `json:"developer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Game) TableName() string {
	return "games"
}
