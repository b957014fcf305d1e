// Package follows implements the follower relationship and the follow-request
// lifecycle used by private accounts.
//
// A relationship advances none -> request_sent -> following for private
// targets, or straight to following for public ones. Rejection and
// cancellation return it to none. All state lives in the follows and
// follow_requests tables; nothing is cached in process.
package follows

import (
	"context"
	stderrors "errors"
	"fmt"

	apierrors "github.com/wavedash/arena/backend/internal/errors"
	"github.com/wavedash/arena/backend/internal/models"
	"gorm.io/gorm"
)

// RelationshipStatus is the viewer-to-target state shown on profiles
type RelationshipStatus string

const (
	StatusNone        RelationshipStatus = "none"
	StatusRequestSent RelationshipStatus = "request_sent"
	StatusFollowing   RelationshipStatus = "following"
)

// Relationship is the bidirectional view between two users
type Relationship struct {
	Status          RelationshipStatus `json:"status"`
	Following       bool               `json:"following"`
	FollowsYou      bool               `json:"follows_you"`
	IncomingRequest bool               `json:"incoming_request"`
}

// Service coordinates follow state transitions
type Service struct {
	db *gorm.DB
}

// NewService creates a follow service backed by db
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Follow makes follower follow target, or files a follow request when the
// target account is private. Already-following and already-requested calls
// are idempotent.
func (s *Service) Follow(ctx context.Context, follower *models.User, target *models.User) (RelationshipStatus, error) {
	if follower.ID == target.ID {
		return "", apierrors.ValidationError("user_id", "cannot follow yourself")
	}

	var existing models.Follow
	err := s.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", follower.ID, target.ID).
		First(&existing).Error
	if err == nil {
		return StatusFollowing, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	if target.IsPrivate {
		return s.requestFollow(ctx, follower, target)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Follow{FollowerID: follower.ID, FolloweeID: target.ID}).Error; err != nil {
			return err
		}
		if err := adjustCounters(tx, follower.ID, target.ID, 1); err != nil {
			return err
		}
		return tx.Create(&models.Notification{
			UserID:  target.ID,
			ActorID: follower.ID,
			Type:    models.NotificationNewFollower,
			Message: fmt.Sprintf("%s started following you", follower.Username),
		}).Error
	})
	if err != nil {
		return "", err
	}
	return StatusFollowing, nil
}

// requestFollow files (or revives) the pending request for a private target
func (s *Service) requestFollow(ctx context.Context, follower *models.User, target *models.User) (RelationshipStatus, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.FollowRequest
		err := tx.Where("requester_id = ? AND target_id = ?", follower.ID, target.ID).
			First(&request).Error
		switch {
		case err == nil:
			if request.Status == models.FollowRequestStatusPending {
				return nil
			}
			// A rejected request row is reused so the pair unique index holds
			return tx.Model(&request).
				Update("status", models.FollowRequestStatusPending).Error
		case stderrors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.FollowRequest{
				RequesterID: follower.ID,
				TargetID:    target.ID,
				Status:      models.FollowRequestStatusPending,
			}).Error; err != nil {
				return err
			}
			return tx.Create(&models.Notification{
				UserID:  target.ID,
				ActorID: follower.ID,
				Type:    models.NotificationFollowRequest,
				Message: fmt.Sprintf("%s wants to follow you", follower.Username),
			}).Error
		default:
			return err
		}
	})
	if err != nil {
		return "", err
	}
	return StatusRequestSent, nil
}

// Unfollow removes the follow relationship. Unfollowing someone you don't
// follow is a no-op.
func (s *Service) Unfollow(ctx context.Context, followerID, targetID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followee_id = ?", followerID, targetID).
			Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return adjustCounters(tx, followerID, targetID, -1)
	})
}

// Accept approves a pending request addressed to target and creates the
// follow relationship
func (s *Service) Accept(ctx context.Context, requestID, targetID string) (*models.FollowRequest, error) {
	var request models.FollowRequest
	err := s.db.WithContext(ctx).
		Where("id = ? AND target_id = ? AND status = ?",
			requestID, targetID, models.FollowRequestStatusPending).
		Preload("Requester").
		First(&request).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("follow request")
	}
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&request).
			Update("status", models.FollowRequestStatusAccepted).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Follow{
			FollowerID: request.RequesterID,
			FolloweeID: request.TargetID,
		}).Error; err != nil {
			return err
		}
		if err := adjustCounters(tx, request.RequesterID, request.TargetID, 1); err != nil {
			return err
		}
		return tx.Create(&models.Notification{
			UserID:  request.RequesterID,
			ActorID: request.TargetID,
			Type:    models.NotificationFollowAccepted,
			Message: "Your follow request was accepted",
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Reject declines a pending request addressed to target
func (s *Service) Reject(ctx context.Context, requestID, targetID string) error {
	var request models.FollowRequest
	err := s.db.WithContext(ctx).
		Where("id = ? AND target_id = ? AND status = ?",
			requestID, targetID, models.FollowRequestStatusPending).
		First(&request).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return apierrors.NotFound("follow request")
	}
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&request).
		Update("status", models.FollowRequestStatusRejected).Error
}

// Cancel withdraws a pending request the requester sent. The row is deleted
// so a later request starts fresh.
func (s *Service) Cancel(ctx context.Context, requestID, requesterID string) error {
	var request models.FollowRequest
	err := s.db.WithContext(ctx).
		Where("id = ? AND requester_id = ? AND status = ?",
			requestID, requesterID, models.FollowRequestStatusPending).
		First(&request).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return apierrors.NotFound("follow request")
	}
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Delete(&request).Error
}

// Relationship derives the bidirectional state between viewer and other
func (s *Service) Relationship(ctx context.Context, viewerID, otherID string) (*Relationship, error) {
	rel := &Relationship{Status: StatusNone}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", viewerID, otherID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	rel.Following = count > 0

	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", otherID, viewerID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	rel.FollowsYou = count > 0

	if err := s.db.WithContext(ctx).Model(&models.FollowRequest{}).
		Where("requester_id = ? AND target_id = ? AND status = ?",
			otherID, viewerID, models.FollowRequestStatusPending).
		Count(&count).Error; err != nil {
		return nil, err
	}
	rel.IncomingRequest = count > 0

	switch {
	case rel.Following:
		rel.Status = StatusFollowing
	default:
		if err := s.db.WithContext(ctx).Model(&models.FollowRequest{}).
			Where("requester_id = ? AND target_id = ? AND status = ?",
				viewerID, otherID, models.FollowRequestStatusPending).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			rel.Status = StatusRequestSent
		}
	}

	return rel, nil
}

// PendingFor lists pending requests addressed to target, newest first
func (s *Service) PendingFor(ctx context.Context, targetID string) ([]models.FollowRequest, error) {
	var requests []models.FollowRequest
	err := s.db.WithContext(ctx).
		Where("target_id = ? AND status = ?", targetID, models.FollowRequestStatusPending).
		Preload("Requester").
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// PendingCount counts pending requests addressed to target
func (s *Service) PendingCount(ctx context.Context, targetID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.FollowRequest{}).
		Where("target_id = ? AND status = ?", targetID, models.FollowRequestStatusPending).
		Count(&count).Error
	return count, err
}

// adjustCounters moves the denormalized follower/following counts by delta
func adjustCounters(tx *gorm.DB, followerID, followeeID string, delta int) error {
	if err := tx.Model(&models.User{}).Where("id = ?", followerID).
		UpdateColumn("following_count", gorm.Expr("following_count + ?", delta)).Error; err != nil {
		return err
	}
	return tx.Model(&models.User{}).Where("id = ?", followeeID).
		UpdateColumn("follower_count", gorm.Expr("follower_count + ?", delta)).Error
}
