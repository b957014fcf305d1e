package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Follow is a directed follower relationship (follower follows followee)
type Follow struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string    `gorm:"not null;index;uniqueIndex:ux_follows_pair" json:"follower_id"`
	FolloweeID string    `gorm:"not null;index;uniqueIndex:ux_follows_pair" json:"followee_id"`
	Follower   User      `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followee   User      `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Follow) TableName() string {
	return "follows"
}

// FollowRequestStatus enumerates the follow request lifecycle
type FollowRequestStatus string

const (
	FollowRequestStatusPending  FollowRequestStatus = "pending"
	FollowRequestStatusAccepted FollowRequestStatus = "accepted"
	FollowRequestStatusRejected FollowRequestStatus = "rejected"
)

// FollowRequest is a request to follow a private account.
// One row exists per ordered (requester, target) pair; a re-request after a
// rejection or cancellation reuses the row and resets it to pending.
type FollowRequest struct {
	ID          string              `gorm:"primaryKey;type:uuid" json:"id"`
	RequesterID string              `gorm:"not null;index;uniqueIndex:ux_follow_requests_pair" json:"requester_id"`
	TargetID    string              `gorm:"not null;index;uniqueIndex:ux_follow_requests_pair" json:"target_id"`
	Requester   User                `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Target      User                `gorm:"foreignKey:TargetID" json:"target,omitempty"`
	Status      FollowRequestStatus `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (r *FollowRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (FollowRequest) TableName() string {
	return "follow_requests"
}

// Notification types
const (
	NotificationFollowRequest  = "follow_request"
	NotificationFollowAccepted = "follow_accepted"
	NotificationNewFollower    = "new_follower"
	NotificationForumReply     = "forum_reply"
)

// Notification is a stored notification row; delivery (push, email) is out of
// scope, clients poll the notifications endpoints
type Notification struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string     `gorm:"not null;index:idx_notifications_user_created" json:"user_id"`
	ActorID   string     `gorm:"index" json:"actor_id"`
	Actor     *User      `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Type      string     `gorm:"type:varchar(32);not null" json:"type"`
	SubjectID string     `json:"subject_id,omitempty"`
	Message   string     `gorm:"type:text" json:"message"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `gorm:"index:idx_notifications_user_created" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Notification) TableName() string {
	return "notifications"
}

// Report statuses
const (
	ReportStatusOpen      = "open"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// Report is a moderation report filed against a piece of content or a user
type Report struct {
	ID         string      `gorm:"primaryKey;type:uuid" json:"id"`
	ReporterID string      `gorm:"not null;index;uniqueIndex:ux_reports_target" json:"reporter_id"`
	TargetType ContentType `gorm:"type:varchar(32);not null;uniqueIndex:ux_reports_target" json:"target_type"`
	TargetID   string      `gorm:"not null;uniqueIndex:ux_reports_target" json:"target_id"`
	Reason     string      `gorm:"type:text;not null" json:"reason"`
	Status     string      `gorm:"type:varchar(16);not null;default:open;index" json:"status"`
	ResolvedBy *string     `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Report) TableName() string {
	return "reports"
}
