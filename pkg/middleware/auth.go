package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/post-service/pkg/response"
)

const (
	UserIDKey     = "user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenVerifier resolves a bearer token to the user it was issued for.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// AuthMiddleware validates bearer tokens.
type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing authorization header")
			return
		}
		if !m.authenticate(c, authHeader) {
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through. A token that is present but
// invalid is still rejected.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			c.Next()
			return
		}
		if !m.authenticate(c, authHeader) {
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context, authHeader string) bool {
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization format")
		return false
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
	userID, err := m.verifier.VerifyToken(c.Request.Context(), token)
	if err != nil || userID == "" {
		response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
		return false
	}

	c.Set(UserIDKey, userID)
	return true
}

// GetUserID extracts user ID from Gin context. Empty for anonymous requests.
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(UserIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
