package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wavedash/arena/backend/internal/logger"
	"github.com/wavedash/arena/backend/internal/models"
	"github.com/wavedash/arena/backend/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListThreads lists forum threads, pinned first then newest
func (h *Handlers) ListThreads(c *gin.Context) {
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 25), 100)
	offset := util.ParseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	query := h.db.WithContext(c.Request.Context()).
		Preload("Author").Preload("Game").
		Order("is_pinned DESC, created_at DESC").
		Limit(limit).Offset(offset)
	if gameID := c.Query("game_id"); gameID != "" {
		query = query.Where("game_id = ?", gameID)
	}

	var threads []models.ForumThread
	if err := query.Find(&threads).Error; err != nil {
		util.RespondInternalError(c, "failed to list threads")
		return
	}

	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

// CreateThreadRequest is the thread creation payload
type CreateThreadRequest struct {
	Title  string  `json:"title" binding:"required"`
	Body   string  `json:"body" binding:"required"`
	GameID *string `json:"game_id"`
}

// CreateThread opens a new discussion thread
func (h *Handlers) CreateThread(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		util.RespondValidationError(c, "title", "title is required")
		return
	}

	if req.GameID != nil {
		var game models.Game
		if err := h.db.First(&game, "id = ?", *req.GameID).Error; err != nil {
			util.RespondValidationError(c, "game_id", "unknown game")
			return
		}
	}

	thread := models.ForumThread{
		AuthorID: user.ID,
		GameID:   req.GameID,
		Title:    strings.TrimSpace(req.Title),
		Body:     req.Body,
	}
	if err := h.db.Create(&thread).Error; err != nil {
		logger.Log.Error("thread creation failed", zap.Error(err))
		util.RespondInternalError(c, "failed to create thread")
		return
	}

	c.JSON(http.StatusCreated, thread)
}

// GetThread returns one thread with its replies in chronological order
func (h *Handlers) GetThread(c *gin.Context) {
	var thread models.ForumThread
	err := h.db.WithContext(c.Request.Context()).
		Preload("Author").Preload("Game").
		First(&thread, "id = ?", c.Param("id")).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "thread")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load thread")
		return
	}

	var replies []models.ForumReply
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Author").
		Where("thread_id = ?", thread.ID).
		Order("created_at ASC").
		Find(&replies).Error; err != nil {
		util.RespondInternalError(c, "failed to load replies")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"thread":  thread,
		"replies": replies,
	})
}

// CreateReplyRequest is the reply payload
type CreateReplyRequest struct {
	Body string `json:"body" binding:"required"`
}

// CreateReply posts a reply to a thread; locked threads refuse new replies
func (h *Handlers) CreateReply(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	var thread models.ForumThread
	err := h.db.First(&thread, "id = ?", c.Param("id")).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "thread")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load thread")
		return
	}
	if thread.IsLocked {
		util.RespondForbidden(c, "thread is locked")
		return
	}

	reply := models.ForumReply{
		ThreadID: thread.ID,
		AuthorID: user.ID,
		Body:     req.Body,
	}
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reply).Error; err != nil {
			return err
		}
		if err := tx.Model(&thread).
			UpdateColumn("reply_count", gorm.Expr("reply_count + 1")).Error; err != nil {
			return err
		}
		// Replying to your own thread does not notify
		if thread.AuthorID == user.ID {
			return nil
		}
		return tx.Create(&models.Notification{
			UserID:    thread.AuthorID,
			ActorID:   user.ID,
			Type:      models.NotificationForumReply,
			SubjectID: thread.ID,
			Message:   fmt.Sprintf("%s replied to your thread", user.Username),
		}).Error
	})
	if err != nil {
		logger.Log.Error("reply creation failed", zap.Error(err))
		util.RespondInternalError(c, "failed to create reply")
		return
	}

	c.JSON(http.StatusCreated, reply)
}
