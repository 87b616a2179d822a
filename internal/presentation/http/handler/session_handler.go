package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/application/service"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/request"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/response"
	"github.com/sangkips/storefront-api/pkg/utils"
)

// SessionResponse is an issued session token
type SessionResponse struct {
	Token     string    `json:"token"`
	SessionID uuid.UUID `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionHandler issues anonymous shopper sessions and serves UI flags
type SessionHandler struct {
	sessions   *service.SessionService
	jwtManager *utils.JWTManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionService, jwtManager *utils.JWTManager) *SessionHandler {
	return &SessionHandler{sessions: sessions, jwtManager: jwtManager}
}

// Create issues a session token. A caller that still holds a valid token gets
// a fresh one for the same session.
func (h *SessionHandler) Create(c *gin.Context) {
	sessionID := GetSessionID(c)
	created := sessionID == uuid.Nil
	if created {
		sessionID = uuid.New()
	}

	token, expiresAt, err := h.jwtManager.GenerateSessionToken(sessionID, GetSessionEmail(c))
	if err != nil {
		response.InternalServerError(c, "Failed to issue session")
		return
	}
	if _, err := h.sessions.Get(c.Request.Context(), sessionID); err != nil {
		_ = c.Error(err)
		response.ErrorWithCode(c, 503, "Session state is unavailable")
		return
	}

	data := SessionResponse{Token: token, SessionID: sessionID, ExpiresAt: expiresAt}
	if created {
		response.Created(c, "Session created", data)
		return
	}
	response.OK(c, "Session refreshed", data)
}

// GetUI returns the interface preferences
func (h *SessionHandler) GetUI(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	response.OK(c, "UI preferences retrieved", sess.UI.Flags())
}

// UpdateUI changes the interface preferences that are present in the body
func (h *SessionHandler) UpdateUI(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req request.UIFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	flags := sess.UI.Flags()
	if req.AnnouncementDismissed != nil {
		flags.AnnouncementDismissed = *req.AnnouncementDismissed
	}
	if req.SidebarCollapsed != nil {
		flags.SidebarCollapsed = *req.SidebarCollapsed
	}
	sess.UI.Set(flags)

	response.OK(c, "UI preferences updated", flags)
}
