package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/response"
	"github.com/sangkips/storefront-api/pkg/apperror"
	"github.com/sangkips/storefront-api/pkg/utils"
)

const (
	// SessionIDKey is the gin context key holding the shopper session uuid.UUID
	SessionIDKey = "session_id"
	// SessionEmailKey holds the email recorded in the session token, if any
	SessionEmailKey = "session_email"
)

// AuthMiddleware requires a valid session token
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateSessionToken(tokenString)
		if err != nil {
			response.Error(c, apperror.ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set(SessionIDKey, claims.SessionID)
		c.Set(SessionEmailKey, claims.Email)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the session when a valid token is present and
// otherwise lets the request through
func OptionalAuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}
		claims, err := jwtManager.ValidateSessionToken(tokenString)
		if err != nil {
			c.Next()
			return
		}

		c.Set(SessionIDKey, claims.SessionID)
		c.Set(SessionEmailKey, claims.Email)
		c.Next()
	}
}

// GetSessionID returns the authenticated session id, or uuid.Nil
func GetSessionID(c *gin.Context) uuid.UUID {
	v, exists := c.Get(SessionIDKey)
	if !exists {
		return uuid.Nil
	}
	id, _ := v.(uuid.UUID)
	return id
}

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
