package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wavedash/arena/backend/internal/models"
	"github.com/wavedash/arena/backend/internal/util"
)

const (
	defaultMatchmakingTTL = 4 * time.Hour
	maxMatchmakingTTL     = 24 * time.Hour
)

// ListMatchmakingPosts lists live "looking for games" posts, newest first.
// Expired posts are filtered out rather than deleted.
func (h *Handlers) ListMatchmakingPosts(c *gin.Context) {
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 25), 100)
	offset := util.ParseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	query := h.db.WithContext(c.Request.Context()).
		Preload("Author").Preload("Game").
		Where("expires_at > ?", time.Now().UTC()).
		Order("created_at DESC").
		Limit(limit).Offset(offset)
	if gameID := c.Query("game_id"); gameID != "" {
		query = query.Where("game_id = ?", gameID)
	}
	if region := c.Query("region"); region != "" {
		query = query.Where("region = ?", region)
	}

	var posts []models.MatchmakingPost
	if err := query.Find(&posts).Error; err != nil {
		util.RespondInternalError(c, "failed to list matchmaking posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// CreateMatchmakingPostRequest is the matchmaking post payload
type CreateMatchmakingPostRequest struct {
	GameID    string `json:"game_id" binding:"required"`
	Region    string `json:"region"`
	Platform  string `json:"platform"`
	Message   string `json:"message"`
	TTLMinute int    `json:"ttl_minutes"`
}

// CreateMatchmakingPost files a "looking for games" post that expires
func (h *Handlers) CreateMatchmakingPost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req CreateMatchmakingPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	var game models.Game
	if err := h.db.First(&game, "id = ?", req.GameID).Error; err != nil {
		util.RespondValidationError(c, "game_id", "unknown game")
		return
	}

	ttl := defaultMatchmakingTTL
	if req.TTLMinute > 0 {
		ttl = time.Duration(req.TTLMinute) * time.Minute
		if ttl > maxMatchmakingTTL {
			ttl = maxMatchmakingTTL
		}
	}

	post := models.MatchmakingPost{
		AuthorID:  user.ID,
		GameID:    req.GameID,
		Region:    req.Region,
		Platform:  req.Platform,
		Message:   req.Message,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	if err := h.db.Create(&post).Error; err != nil {
		util.RespondInternalError(c, "failed to create matchmaking post")
		return
	}

	c.JSON(http.StatusCreated, post)
}

// DeleteMatchmakingPost removes the author's own post early
func (h *Handlers) DeleteMatchmakingPost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND author_id = ?", c.Param("id"), user.ID).
		Delete(&models.MatchmakingPost{})
	if res.Error != nil {
		util.RespondInternalError(c, "failed to delete matchmaking post")
		return
	}
	if res.RowsAffected == 0 {
		util.RespondNotFound(c, "matchmaking post")
		return
	}

	c.Status(http.StatusNoContent)
}
