// Package handlers wires the HTTP API surface to the domain services.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/wavedash/arena/backend/internal/auth"
	"github.com/wavedash/arena/backend/internal/cache"
	"github.com/wavedash/arena/backend/internal/chat"
	apierrors "github.com/wavedash/arena/backend/internal/errors"
	"github.com/wavedash/arena/backend/internal/follows"
	"github.com/wavedash/arena/backend/internal/metrics"
	"github.com/wavedash/arena/backend/internal/util"
	"github.com/wavedash/arena/backend/internal/views"
	"gorm.io/gorm"
)

// Handlers bundles the services behind the HTTP API
type Handlers struct {
	db      *gorm.DB
	auth    *auth.Service
	views   *views.Deduplicator
	follows *follows.Service
	cache   *cache.RedisClient
	hub     *chat.Hub
}

// New creates the handler set. cacheClient and hub may be nil; the endpoints
// that need them degrade gracefully (no stats caching, chat disabled).
func New(db *gorm.DB, authService *auth.Service, cacheClient *cache.RedisClient, hub *chat.Hub) *Handlers {
	return &Handlers{
		db:      db,
		auth:    authService,
		views:   views.NewDeduplicator(db),
		follows: follows.NewService(db),
		cache:   cacheClient,
		hub:     hub,
	}
}

// respondError maps service errors onto the wire format. APIErrors pass
// through with their status; anything else becomes a 500.
func respondError(c *gin.Context, err error) {
	if apiErr, ok := err.(*apierrors.APIError); ok {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	metrics.RecordError("internal", c.FullPath())
	util.RespondInternalError(c, "internal server error")
}
