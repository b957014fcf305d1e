package handlers

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wavedash/arena/backend/internal/events"
	"github.com/wavedash/arena/backend/internal/logger"
	"github.com/wavedash/arena/backend/internal/models"
	"github.com/wavedash/arena/backend/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EventResponse is an event row plus its derived display status
type EventResponse struct {
	models.Event
	Status            models.EventStatus `json:"status"`
	StatusDescription string             `json:"status_description"`
	CanOverrideStatus bool               `json:"can_override_status"`
}

func eventResponse(event models.Event, now time.Time) EventResponse {
	status := events.ResolveEffectiveStatus(event.StartAt, event.EndAt, event.StatusOverride, now)
	return EventResponse{
		Event:             event,
		Status:            status,
		StatusDescription: events.DescribeStatus(status, event.StartAt, event.EndAt, now),
		CanOverrideStatus: events.CanOverrideStatus(event.StartAt, event.EndAt, now),
	}
}

// ListEvents lists events, optionally filtered by game and effective status
func (h *Handlers) ListEvents(c *gin.Context) {
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 50), 100)
	offset := util.ParseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}
	now := time.Now().UTC()

	query := h.db.WithContext(c.Request.Context()).
		Preload("Game").Preload("Organizer").
		Order("start_at ASC").
		Limit(limit).Offset(offset)
	if gameID := c.Query("game_id"); gameID != "" {
		query = query.Where("game_id = ?", gameID)
	}
	if statusFilter := models.EventStatus(c.Query("status")); statusFilter != "" {
		filtered, ok := withStatusFilter(query, statusFilter, now)
		if !ok {
			util.RespondValidationError(c, "status", "invalid status value")
			return
		}
		query = filtered
	}

	var rows []models.Event
	if err := query.Find(&rows).Error; err != nil {
		util.RespondInternalError(c, "failed to list events")
		return
	}

	out := make([]EventResponse, 0, len(rows))
	for _, event := range rows {
		out = append(out, eventResponse(event, now))
	}

	c.JSON(http.StatusOK, gin.H{"events": out})
}

// withStatusFilter translates an effective-status filter into row predicates
// so pagination only sees matching rows. Effective status is the override
// when one is set, otherwise derived from the event times.
func withStatusFilter(query *gorm.DB, status models.EventStatus, now time.Time) (*gorm.DB, bool) {
	auto := models.EventStatusAuto
	switch status {
	case models.EventStatusCancelled:
		return query.Where("status_override = ?", status), true
	case models.EventStatusUpcoming:
		return query.Where("status_override = ? OR (status_override = ? AND start_at > ?)",
			status, auto, now), true
	case models.EventStatusOngoing:
		return query.Where("status_override = ? OR (status_override = ? AND start_at <= ? AND end_at >= ?)",
			status, auto, now, now), true
	case models.EventStatusCompleted:
		return query.Where("status_override = ? OR (status_override = ? AND end_at < ?)",
			status, auto, now), true
	default:
		return query, false
	}
}

// GetEvent returns one event with its derived status
func (h *Handlers) GetEvent(c *gin.Context) {
	var event models.Event
	err := h.db.WithContext(c.Request.Context()).
		Preload("Game").Preload("Organizer").
		First(&event, "id = ?", c.Param("id")).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "event")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load event")
		return
	}

	c.JSON(http.StatusOK, eventResponse(event, time.Now().UTC()))
}

// CreateEventRequest is the event creation payload
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	IsOnline    bool      `json:"is_online"`
	GameID      string    `json:"game_id" binding:"required"`
	StartAt     time.Time `json:"start_at" binding:"required"`
	EndAt       time.Time `json:"end_at" binding:"required"`
}

// CreateEvent creates an event organized by the authenticated user
func (h *Handlers) CreateEvent(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}
	if !req.EndAt.After(req.StartAt) {
		util.RespondValidationError(c, "end_at", "end_at must be after start_at")
		return
	}

	var game models.Game
	if err := h.db.First(&game, "id = ?", req.GameID).Error; err != nil {
		util.RespondValidationError(c, "game_id", "unknown game")
		return
	}

	event := models.Event{
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		IsOnline:       req.IsOnline,
		GameID:         req.GameID,
		OrganizerID:    user.ID,
		StartAt:        req.StartAt.UTC(),
		EndAt:          req.EndAt.UTC(),
		StatusOverride: models.EventStatusAuto,
	}
	if err := h.db.Create(&event).Error; err != nil {
		logger.Log.Error("event creation failed", zap.Error(err))
		util.RespondInternalError(c, "failed to create event")
		return
	}

	c.JSON(http.StatusCreated, eventResponse(event, time.Now().UTC()))
}

// UpdateEventStatusRequest sets or clears the manual status override
type UpdateEventStatusRequest struct {
	Status models.EventStatus `json:"status" binding:"required"`
}

// UpdateEventStatus stores a manual status override. Only the organizer or a
// moderator may set it, and only while the override window is open.
func (h *Handlers) UpdateEventStatus(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req UpdateEventStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}
	if !req.Status.IsValidOverride() {
		util.RespondValidationError(c, "status", "invalid status value")
		return
	}

	var event models.Event
	err := h.db.First(&event, "id = ?", c.Param("id")).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "event")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load event")
		return
	}

	if event.OrganizerID != user.ID && !user.IsModerator {
		util.RespondForbidden(c, "only the organizer or a moderator may change event status")
		return
	}

	now := time.Now().UTC()
	if !events.CanOverrideStatus(event.StartAt, event.EndAt, now) {
		util.RespondConflict(c, "event status override window")
		return
	}

	if err := h.db.Model(&event).Update("status_override", req.Status).Error; err != nil {
		util.RespondInternalError(c, "failed to update event status")
		return
	}
	event.StatusOverride = req.Status

	logger.Log.Info("event status overridden",
		zap.String("event_id", event.ID),
		logger.WithUserID(user.ID),
		zap.String("status", string(req.Status)),
	)

	c.JSON(http.StatusOK, eventResponse(event, now))
}
