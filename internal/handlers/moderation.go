package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/wavedash/arena/backend/internal/errors"
	"github.com/wavedash/arena/backend/internal/models"
	"github.com/wavedash/arena/backend/internal/util"
	"gorm.io/gorm"
)

// CreateReportRequest files a moderation report against content or a user
type CreateReportRequest struct {
	TargetType string `json:"target_type" binding:"required"`
	TargetID   string `json:"target_id" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// CreateReport files a report. Each reporter may report a target once.
func (h *Handlers) CreateReport(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	targetType := models.ContentType(req.TargetType)
	if !targetType.IsValid() {
		util.RespondValidationError(c, "target_type", "unknown target type")
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		util.RespondValidationError(c, "reason", "reason is required")
		return
	}

	report := models.Report{
		ReporterID: user.ID,
		TargetType: targetType,
		TargetID:   req.TargetID,
		Reason:     req.Reason,
		Status:     models.ReportStatusOpen,
	}
	if err := h.db.Create(&report).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "duplicate key value") ||
			stderrors.Is(err, gorm.ErrDuplicatedKey) {
			util.RespondWithAPIError(c, apierrors.AlreadyExists("report"))
			return
		}
		util.RespondInternalError(c, "failed to create report")
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListReports lists reports for the moderation queue; moderator only
func (h *Handlers) ListReports(c *gin.Context) {
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 25), 100)
	offset := util.ParseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	status := c.DefaultQuery("status", models.ReportStatusOpen)

	var reports []models.Report
	err := h.db.WithContext(c.Request.Context()).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&reports).Error
	if err != nil {
		util.RespondInternalError(c, "failed to list reports")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ResolveReportRequest closes a report as resolved or dismissed
type ResolveReportRequest struct {
	Status string `json:"status" binding:"required"`
}

// ResolveReport closes an open report; moderator only
func (h *Handlers) ResolveReport(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req ResolveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}
	if req.Status != models.ReportStatusResolved && req.Status != models.ReportStatusDismissed {
		util.RespondValidationError(c, "status", "status must be resolved or dismissed")
		return
	}

	var report models.Report
	err := h.db.First(&report, "id = ?", c.Param("id")).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "report")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load report")
		return
	}
	if report.Status != models.ReportStatusOpen {
		util.RespondConflict(c, "report")
		return
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":      req.Status,
		"resolved_by": user.ID,
		"resolved_at": now,
	}
	if err := h.db.Model(&report).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "failed to resolve report")
		return
	}

	report.Status = req.Status
	report.ResolvedBy = &user.ID
	report.ResolvedAt = &now
	c.JSON(http.StatusOK, report)
}
