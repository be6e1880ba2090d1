package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/damoang/qna-revision/internal/domain"
	"github.com/damoang/qna-revision/pkg/jwt"
	"github.com/damoang/qna-revision/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-secret"

func newAuthRouter(moderatorLevel int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(jwt.NewManager(testSecret), moderatorLevel))
	r.GET("/test", func(c *gin.Context) {
		actor, ok := GetActor(c)
		c.JSON(http.StatusOK, gin.H{"ok": ok, "id": actor.ID, "moderator": actor.IsModerator, "level": GetUserLevel(c)})
	})
	return r
}

func bearer(t *testing.T, userID string, level int, ttl time.Duration) string {
	t.Helper()
	token, err := jwt.NewManager(testSecret).GenerateToken(userID, userID, level, ttl)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestJWTAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"member", bearer(t, "alice", 2, time.Hour), http.StatusOK, `"moderator":false`},
		{"moderator", bearer(t, "mod", 10, time.Hour), http.StatusOK, `"moderator":true`},
		{"missing header", "", http.StatusUnauthorized, "Missing authorization header"},
		{"bad scheme", "Token abc", http.StatusUnauthorized, "Invalid authorization header format"},
		{"garbage token", "Bearer abc", http.StatusUnauthorized, "Invalid token"},
		{"expired", bearer(t, "alice", 2, -time.Minute), http.StatusUnauthorized, "Token expired"},
	}

	r := newAuthRouter(10)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestJWTAuth_ModeratorLevelDisabled(t *testing.T) {
	r := newAuthRouter(0)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", bearer(t, "mod", 10, time.Hour))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"moderator":false`)
}

func TestGetActor_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	actor, ok := GetActor(c)
	assert.False(t, ok)
	assert.Equal(t, domain.Actor{}, actor)
	assert.Empty(t, GetUserID(c))
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(&bytes.Buffer{}) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(), Metrics())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc123", w.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"request_id":"abc123"`)
	assert.Contains(t, buf.String(), `"status":204`)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get("X-Request-ID"), 8)
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}
