package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wavedash/arena/backend/internal/logger"
	"github.com/wavedash/arena/backend/internal/metrics"
	"github.com/wavedash/arena/backend/internal/models"
	"github.com/wavedash/arena/backend/internal/util"
	"github.com/wavedash/arena/backend/internal/views"
	"go.uber.org/zap"
)

// anonCookieName is the long-lived browser token used to identify anonymous
// visitors for view dedup
const anonCookieName = "anon_id"

const statsCacheTTL = 60 * time.Second

// TrackViewRequest is the view tracking payload
type TrackViewRequest struct {
	ContentID   string `json:"content_id" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// TrackView records a content view. Responds 204 whether the view was stored
// or collapsed into an earlier one; clients cannot distinguish the two.
func (h *Handlers) TrackView(c *gin.Context) {
	var req TrackViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	in := views.RecordInput{
		ContentID:   req.ContentID,
		ContentType: models.ContentType(req.ContentType),
		IP:          clientIP(c),
		UserAgent:   c.Request.UserAgent(),
	}

	if user := util.MaybeUserFromContext(c); user != nil {
		in.UserID = user.ID
	}
	if anonID, err := c.Cookie(anonCookieName); err == nil {
		in.AnonID = anonID
	}

	result, err := h.views.RecordView(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.RecordViewEvent(string(in.ContentType), string(result.Action))
	logger.Log.Debug("view tracked",
		logger.WithContentID(req.ContentID),
		zap.String("content_type", req.ContentType),
		zap.String("action", string(result.Action)),
	)

	c.Status(http.StatusNoContent)
}

// GetViewStats serves aggregated view counts for one content item, cached in
// Redis for a minute when Redis is configured
func (h *Handlers) GetViewStats(c *gin.Context) {
	contentType := models.ContentType(c.Param("type"))
	contentID := c.Param("id")

	period, err := views.ParsePeriod(c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 100)

	cacheKey := "viewstats:" + string(contentType) + ":" + contentID + ":" + string(period)
	if h.cache != nil {
		if cached, err := h.cache.Get(c.Request.Context(), cacheKey); err == nil {
			metrics.RecordCacheHit("view_stats")
			c.Data(http.StatusOK, "application/json", []byte(cached))
			return
		}
		metrics.RecordCacheMiss("view_stats")
	}

	stats, err := h.views.Stats(c.Request.Context(), contentID, contentType, period, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := h.cache.SetEx(c.Request.Context(), cacheKey, payload, statsCacheTTL); err != nil {
				logger.Log.Warn("view stats cache write failed", zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, stats)
}

// clientIP resolves the caller address, preferring the reverse proxy header
func clientIP(c *gin.Context) string {
	if ip := util.FirstForwardedFor(c.GetHeader("X-Forwarded-For")); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
