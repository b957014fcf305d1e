package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wavedash/arena/backend/internal/metrics"
	"github.com/wavedash/arena/backend/internal/models"
	"github.com/wavedash/arena/backend/internal/util"
	"gorm.io/gorm"
)

// FollowUser follows the :id user, or files a follow request when their
// account is private
func (h *Handlers) FollowUser(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var target models.User
	err := h.db.First(&target, "id = ?", c.Param("id")).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "user")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load user")
		return
	}

	status, err := h.follows.Follow(c.Request.Context(), user, &target)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.RecordFollowEvent(string(status))
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// UnfollowUser removes the follow relationship with the :id user
func (h *Handlers) UnfollowUser(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := h.follows.Unfollow(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	metrics.RecordFollowEvent("unfollow")
	c.Status(http.StatusNoContent)
}

// GetRelationship returns the bidirectional follow state with the :id user
func (h *Handlers) GetRelationship(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	rel, err := h.follows.Relationship(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rel)
}

// followListEntry is the compact profile card in follower listings
type followListEntry struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// ListFollowers lists accounts following the :id user
func (h *Handlers) ListFollowers(c *gin.Context) {
	h.listFollowEdges(c, "follower_id", "followee_id")
}

// ListFollowing lists accounts the :id user follows
func (h *Handlers) ListFollowing(c *gin.Context) {
	h.listFollowEdges(c, "followee_id", "follower_id")
}

func (h *Handlers) listFollowEdges(c *gin.Context, selectCol, whereCol string) {
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 50), 100)
	offset := util.ParseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	var entries []followListEntry
	err := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Select("users.id", "users.username", "users.display_name", "users.avatar_url").
		Joins("JOIN follows ON follows."+selectCol+" = users.id").
		Where("follows."+whereCol+" = ?", c.Param("id")).
		Order("follows.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	if err != nil {
		util.RespondInternalError(c, "failed to list follows")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": entries})
}
