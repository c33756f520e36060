package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/auth"
	"github.com/aura-events/backend/pkg/response"
)

const (
	// ContextUserID is the key for the caller's user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// TokenValidator verifies a bearer credential.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// JWT returns a middleware that validates the bearer token and sets the caller identity in context.
func JWT(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// CallerID returns the authenticated caller set by JWT.
func CallerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
