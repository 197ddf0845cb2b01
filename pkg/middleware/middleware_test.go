package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"alumni/internal/access"
	"alumni/pkg/utils"
)

type stubResolver struct {
	principals map[uuid.UUID]access.Principal
}

func (r stubResolver) Resolve(_ context.Context, id uuid.UUID) (access.Principal, error) {
	p, ok := r.principals[id]
	if !ok {
		return access.Anonymous(), utils.ErrInvalidToken
	}
	return p, nil
}

func newRouter(tokens *utils.TokenManager, resolver PrincipalResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceIDMiddleware())

	whoami := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": Principal(c).Role.String()})
	}
	r.GET("/required", JWTAuthMiddleware(tokens, resolver), whoami)
	r.GET("/optional", OptionalJWTMiddleware(tokens, resolver), whoami)
	r.GET("/admin", JWTAuthMiddleware(tokens, resolver), RequireAdmin(), whoami)
	return r
}

func call(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func role(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["role"]
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("middleware-secret", time.Hour)
	memberID, adminID, deletedID := uuid.New(), uuid.New(), uuid.New()
	r := newRouter(tokens, stubResolver{principals: map[uuid.UUID]access.Principal{
		memberID: access.Member(memberID),
		adminID:  access.Admin(adminID),
	}})

	memberToken, err := tokens.CreateToken(memberID)
	require.NoError(t, err)
	adminToken, err := tokens.CreateToken(adminID)
	require.NoError(t, err)
	deletedToken, err := tokens.CreateToken(deletedID)
	require.NoError(t, err)
	foreignToken, err := utils.NewTokenManager("other-secret", time.Hour).CreateToken(memberID)
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
		wantRole string
	}{
		{"required without token", "/required", "", http.StatusUnauthorized, ""},
		{"required with member", "/required", memberToken, http.StatusOK, "member"},
		{"required with foreign signature", "/required", foreignToken, http.StatusUnauthorized, ""},
		{"required with deleted account", "/required", deletedToken, http.StatusUnauthorized, ""},
		{"optional without token", "/optional", "", http.StatusOK, "anonymous"},
		{"optional with admin", "/optional", adminToken, http.StatusOK, "admin"},
		{"optional with garbage", "/optional", "not-a-jwt", http.StatusUnauthorized, ""},
		{"admin route as member", "/admin", memberToken, http.StatusForbidden, ""},
		{"admin route as admin", "/admin", adminToken, http.StatusOK, "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(r, tt.path, tt.token)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantRole != "" {
				assert.Equal(t, tt.wantRole, role(t, w))
			}
			if tt.wantCode == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestTraceIDMiddleware(t *testing.T) {
	r := newRouter(utils.NewTokenManager("s", time.Hour), stubResolver{})

	w := call(r, "/optional", "")
	_, err := uuid.Parse(w.Header().Get(TraceHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set(TraceHeader, "upstream-trace")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-trace", w.Header().Get(TraceHeader))
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(TraceIDMiddleware(), RequestLogger(zap.New(core)))
	r.GET("/missing/:id", func(c *gin.Context) {
		utils.HandleServiceError(c, utils.ErrEventNotFound)
	})

	w := call(r, "/missing/42", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.Equal(t, "/missing/:id", fields["path"])
	assert.Equal(t, w.Header().Get(TraceHeader), fields["trace_id"])
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("https://alumni.example.org"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://alumni.example.org")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://alumni.example.org", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
