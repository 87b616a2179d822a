package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/storefront-api/internal/presentation/http/dto/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(t *testing.T, sessionID uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rl := NewSessionRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 0.001,
		BurstSize:         2,
		CleanupInterval:   time.Minute,
		EntryTTL:          time.Minute,
	})
	t.Cleanup(rl.Close)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if sessionID != uuid.Nil {
			c.Set(SessionIDKey, sessionID)
		}
		c.Next()
	})
	r.Use(rl.Middleware())
	r.GET("/cart", func(c *gin.Context) {
		response.OK(c, "ok", nil)
	})
	return r
}

func getCart(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))
	return w
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	r := newLimitedRouter(t, uuid.New())

	require.Equal(t, http.StatusOK, getCart(r).Code)
	require.Equal(t, http.StatusOK, getCart(r).Code)

	w := getCart(r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	var body response.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", body.Message)
}
