package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type staticVerifier map[string]string

func (s staticVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid")
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewAuthMiddleware(staticVerifier{"good": "u1"})
	r := gin.New()
	whoami := func(c *gin.Context) { c.String(http.StatusOK, GetUserID(c)) }
	r.GET("/required", m.RequireAuth(), whoami)
	r.GET("/optional", m.OptionalAuth(), whoami)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()

	tests := []struct {
		path     string
		header   string
		wantCode int
		wantBody string
	}{
		{"/required", "Bearer good", http.StatusOK, "u1"},
		{"/required", "", http.StatusUnauthorized, ""},
		{"/required", "Bearer bad", http.StatusUnauthorized, ""},
		{"/required", "Basic good", http.StatusUnauthorized, ""},
		{"/optional", "", http.StatusOK, ""},
		{"/optional", "Bearer good", http.StatusOK, "u1"},
		{"/optional", "Bearer bad", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path+" "+tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"UNAUTHORIZED"`)
			}
		})
	}
}
