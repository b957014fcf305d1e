package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wavedash/arena/backend/internal/metrics"
	"github.com/wavedash/arena/backend/internal/util"
)

// ListFollowRequests lists pending follow requests addressed to the
// authenticated user, newest first
func (h *Handlers) ListFollowRequests(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	requests, err := h.follows.PendingFor(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// CountFollowRequests returns the number of pending requests addressed to
// the authenticated user, for badge rendering
func (h *Handlers) CountFollowRequests(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	count, err := h.follows.PendingCount(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// AcceptFollowRequest approves a pending request addressed to the
// authenticated user
func (h *Handlers) AcceptFollowRequest(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	request, err := h.follows.Accept(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.RecordFollowEvent("accept")
	c.JSON(http.StatusOK, request)
}

// RejectFollowRequest declines a pending request addressed to the
// authenticated user
func (h *Handlers) RejectFollowRequest(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := h.follows.Reject(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondError(c, err)
		return
	}

	metrics.RecordFollowEvent("reject")
	c.Status(http.StatusNoContent)
}

// CancelFollowRequest withdraws a pending request the authenticated user sent
func (h *Handlers) CancelFollowRequest(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := h.follows.Cancel(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondError(c, err)
		return
	}

	metrics.RecordFollowEvent("cancel")
	c.Status(http.StatusNoContent)
}
