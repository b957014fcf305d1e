package handlers

import (
	stderrors "errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wavedash/arena/backend/internal/models"
	"github.com/wavedash/arena/backend/internal/util"
	"gorm.io/gorm"
)

// ListNews lists published articles, newest first
func (h *Handlers) ListNews(c *gin.Context) {
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 50)
	offset := util.ParseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	var articles []models.NewsArticle
	err := h.db.WithContext(c.Request.Context()).
		Preload("Author").
		Where("published_at IS NOT NULL AND published_at <= ?", time.Now().UTC()).
		Order("published_at DESC").
		Limit(limit).Offset(offset).
		Find(&articles).Error
	if err != nil {
		util.RespondInternalError(c, "failed to list news")
		return
	}

	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

// GetNewsArticle returns one published article by slug
func (h *Handlers) GetNewsArticle(c *gin.Context) {
	var article models.NewsArticle
	err := h.db.WithContext(c.Request.Context()).
		Preload("Author").
		Where("slug = ? AND published_at IS NOT NULL AND published_at <= ?",
			c.Param("slug"), time.Now().UTC()).
		First(&article).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "article")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load article")
		return
	}

	c.JSON(http.StatusOK, article)
}

// CreateNewsRequest is the article creation payload. Publishing is immediate
// unless publish is false, which saves a draft.
type CreateNewsRequest struct {
	Title   string  `json:"title" binding:"required"`
	Summary string  `json:"summary"`
	Body    string  `json:"body" binding:"required"`
	GameID  *string `json:"game_id"`
	Publish *bool   `json:"publish"`
}

// CreateNewsArticle creates an article; moderator only
func (h *Handlers) CreateNewsArticle(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req CreateNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	slug := slugify(req.Title)
	if slug == "" {
		util.RespondValidationError(c, "title", "title must contain letters or digits")
		return
	}

	var count int64
	if err := h.db.Model(&models.NewsArticle{}).
		Where("slug = ?", slug).Count(&count).Error; err != nil {
		util.RespondInternalError(c, "failed to check slug")
		return
	}
	if count > 0 {
		util.RespondConflict(c, "article slug")
		return
	}

	article := models.NewsArticle{
		AuthorID: user.ID,
		GameID:   req.GameID,
		Title:    strings.TrimSpace(req.Title),
		Slug:     slug,
		Summary:  req.Summary,
		Body:     req.Body,
	}
	if req.Publish == nil || *req.Publish {
		now := time.Now().UTC()
		article.PublishedAt = &now
	}

	if err := h.db.Create(&article).Error; err != nil {
		util.RespondInternalError(c, "failed to create article")
		return
	}

	c.JSON(http.StatusCreated, article)
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases a title and collapses runs of other characters to dashes
func slugify(title string) string {
	slug := slugStripRe.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}
