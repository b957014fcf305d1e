package util

import (
	"github.com/gin-gonic/gin"
	"github.com/wavedash/arena/backend/internal/models"
)

// GetUserFromContext extracts the authenticated user from the Gin context.
// Responds with 401 Unauthorized and returns false when no user is set.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		RespondUnauthorized(c)
		return nil, false
	}
	userPtr, ok := user.(*models.User)
	if !ok {
		RespondInternalError(c, "invalid user data in context")
		return nil, false
	}
	return userPtr, true
}

// MaybeUserFromContext extracts the authenticated user if one is present.
// Unlike GetUserFromContext it never writes a response; endpoints that accept
// anonymous visitors use it.
func MaybeUserFromContext(c *gin.Context) *models.User {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	if userPtr, ok := user.(*models.User); ok {
		return userPtr
	}
	return nil
}
