package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/wavedash/arena/backend/internal/database"
	"github.com/wavedash/arena/backend/internal/models"
	"github.com/wavedash/arena/backend/internal/util"
	"golang.org/x/crypto/bcrypt"
)

// Service issues and validates session tokens
type Service struct {
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewService creates an auth service with the given signing secret
func NewService(jwtSecret []byte) *Service {
	return &Service{
		jwtSecret: jwtSecret,
		tokenTTL:  30 * 24 * time.Hour,
	}
}

// Claims are the JWT claims carried in a session token
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// HashPassword hashes a plaintext password with bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a stored hash
func (s *Service) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken creates a signed session token for a user
func (s *Service) GenerateToken(userID string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			Issuer:    "arena-backend",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses a session token and returns the user ID it carries
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("invalid token claims")
	}
	return claims.UserID, nil
}

// Middleware authenticates the request and loads the user into the context.
// Requests without a valid bearer token are rejected with 401.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.userFromRequest(c)
		if err != nil {
			util.RespondUnauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// OptionalMiddleware loads the user when a valid token is present but lets
// anonymous requests through. View tracking uses it.
func (s *Service) OptionalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := s.userFromRequest(c); err == nil {
			c.Set("user", user)
			c.Set("user_id", user.ID)
		}
		c.Next()
	}
}

// ModeratorOnly rejects requests from non-moderators. Must run after
// Middleware.
func ModeratorOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			c.Abort()
			return
		}
		if !user.IsModerator {
			util.RespondForbidden(c, "moderator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Service) userFromRequest(c *gin.Context) (*models.User, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, fmt.Errorf("missing authorization header")
	}

	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header {
		return nil, fmt.Errorf("authorization header must use bearer scheme")
	}

	userID, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired token")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return &user, nil
}
