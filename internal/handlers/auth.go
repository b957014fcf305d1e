package handlers

import (
	stderrors "errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wavedash/arena/backend/internal/logger"
	"github.com/wavedash/arena/backend/internal/models"
	"github.com/wavedash/arena/backend/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,24}$`)

// RegisterRequest is the signup payload
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password" binding:"required"`
	Region      string `json:"region"`
}

// AuthResponse returns the session token alongside the account
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register creates an account and returns a session token
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if !usernameRe.MatchString(req.Username) {
		util.RespondValidationError(c, "username",
			"username must be 3-24 characters of letters, digits, or underscores")
		return
	}
	if len(req.Password) < 8 {
		util.RespondValidationError(c, "password", "password must be at least 8 characters")
		return
	}

	var count int64
	if err := h.db.Model(&models.User{}).
		Where("lower(username) = lower(?) OR lower(email) = ?", req.Username, req.Email).
		Count(&count).Error; err != nil {
		util.RespondInternalError(c, "failed to check existing accounts")
		return
	}
	if count > 0 {
		util.RespondConflict(c, "account")
		return
	}

	hash, err := h.auth.HashPassword(req.Password)
	if err != nil {
		util.RespondInternalError(c, "failed to create account")
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		DisplayName:  displayName,
		Region:       req.Region,
		PasswordHash: &hash,
	}
	if err := h.db.Create(&user).Error; err != nil {
		logger.Log.Error("account creation failed", zap.Error(err))
		util.RespondInternalError(c, "failed to create account")
		return
	}

	token, err := h.auth.GenerateToken(user.ID)
	if err != nil {
		util.RespondInternalError(c, "failed to issue token")
		return
	}

	logger.Log.Info("account registered",
		logger.WithUserID(user.ID),
		zap.String("username", user.Username),
	)

	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user})
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and returns a session token
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	var user models.User
	err := h.db.Where("lower(email) = lower(?)", strings.TrimSpace(req.Email)).
		First(&user).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondUnauthorized(c, "invalid email or password")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "login failed")
		return
	}

	if user.PasswordHash == nil || !h.auth.CheckPassword(*user.PasswordHash, req.Password) {
		util.RespondUnauthorized(c, "invalid email or password")
		return
	}

	token, err := h.auth.GenerateToken(user.ID)
	if err != nil {
		util.RespondInternalError(c, "failed to issue token")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
}

// Me returns the authenticated account
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}
