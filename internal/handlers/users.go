package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wavedash/arena/backend/internal/models"
	"github.com/wavedash/arena/backend/internal/util"
	"gorm.io/gorm"
)

// UserProfile is the public shape of an account. The email never leaves the
// owner's own session.
type UserProfile struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	DisplayName    string  `json:"display_name"`
	Bio            string  `json:"bio"`
	AvatarURL      string  `json:"avatar_url"`
	Region         string  `json:"region"`
	MainGameID     *string `json:"main_game_id,omitempty"`
	IsPrivate      bool    `json:"is_private"`
	FollowerCount  int     `json:"follower_count"`
	FollowingCount int     `json:"following_count"`
}

// GetUser returns a public profile by ID or username
func (h *Handlers) GetUser(c *gin.Context) {
	key := c.Param("id")

	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		Where("id = ? OR lower(username) = lower(?)", key, key).
		First(&user).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "user")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load user")
		return
	}

	c.JSON(http.StatusOK, UserProfile{
		ID:             user.ID,
		Username:       user.Username,
		DisplayName:    user.DisplayName,
		Bio:            user.Bio,
		AvatarURL:      user.AvatarURL,
		Region:         user.Region,
		MainGameID:     user.MainGameID,
		IsPrivate:      user.IsPrivate,
		FollowerCount:  user.FollowerCount,
		FollowingCount: user.FollowingCount,
	})
}

// UpdateProfileRequest is the profile edit payload; nil fields are untouched
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
	Region      *string `json:"region"`
	MainGameID  *string `json:"main_game_id"`
	IsPrivate   *bool   `json:"is_private"`
}

// UpdateProfile edits the authenticated user's own profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.Region != nil {
		updates["region"] = *req.Region
	}
	if req.MainGameID != nil {
		var game models.Game
		if err := h.db.First(&game, "id = ?", *req.MainGameID).Error; err != nil {
			util.RespondValidationError(c, "main_game_id", "unknown game")
			return
		}
		updates["main_game_id"] = *req.MainGameID
	}
	if req.IsPrivate != nil {
		updates["is_private"] = *req.IsPrivate
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, user)
		return
	}

	if err := h.db.Model(user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListGames returns the site game roster
func (h *Handlers) ListGames(c *gin.Context) {
	var games []models.Game
	if err := h.db.WithContext(c.Request.Context()).
		Order("name ASC").Find(&games).Error; err != nil {
		util.RespondInternalError(c, "failed to list games")
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}
