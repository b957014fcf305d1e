package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wavedash/arena/backend/internal/models"
	"github.com/wavedash/arena/backend/internal/util"
)

// ListNotifications lists the authenticated user's notifications, newest first
func (h *Handlers) ListNotifications(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 25), 100)
	offset := util.ParseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	query := h.db.WithContext(c.Request.Context()).
		Preload("Actor").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(limit).Offset(offset)
	if c.Query("unread") == "true" {
		query = query.Where("read_at IS NULL")
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		util.RespondInternalError(c, "failed to list notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// UnreadNotificationCount returns the badge count
func (h *Handlers) UnreadNotificationCount(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var count int64
	err := h.db.WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", user.ID).
		Count(&count).Error
	if err != nil {
		util.RespondInternalError(c, "failed to count notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkNotificationsReadRequest selects notifications to mark; empty means all
type MarkNotificationsReadRequest struct {
	IDs []string `json:"ids"`
}

// MarkNotificationsRead marks the given notifications (or all of them) read
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req MarkNotificationsReadRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	now := time.Now().UTC()
	query := h.db.WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", user.ID)
	if len(req.IDs) > 0 {
		query = query.Where("id IN ?", req.IDs)
	}

	res := query.Update("read_at", now)
	if res.Error != nil {
		util.RespondInternalError(c, "failed to mark notifications read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked": res.RowsAffected})
}
