package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/application/service"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/response"
)

// GetSessionID extracts the shopper session ID from the Gin context
func GetSessionID(c *gin.Context) uuid.UUID {
	v, exists := c.Get("session_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

// GetSessionEmail extracts the email recorded in the session token
func GetSessionEmail(c *gin.Context) string {
	email, exists := c.Get("session_email")
	if !exists {
		return ""
	}
	s, _ := email.(string)
	return s
}

// currentSession loads the caller's live session. It writes the error
// response and returns false when there is none.
func currentSession(c *gin.Context, sessions *service.SessionService) (*service.Session, bool) {
	id := GetSessionID(c)
	if id == uuid.Nil {
		response.Unauthorized(c, "Session not authenticated")
		return nil, false
	}
	sess, err := sessions.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		response.ErrorWithCode(c, 503, "Session state is unavailable")
		return nil, false
	}
	return sess, true
}

// pathUUID parses a uuid path parameter, writing a 400 on failure
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
