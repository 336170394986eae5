package middleware

import (
	"context" // Request-scoped cancellation
	"strings" // String manipulation

	"camera_market/internal/api/render" // Error responses
	"camera_market/internal/domain"     // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

const (
	// SessionHeader carries the opaque session token
	SessionHeader = "X-Session-Token"
	userKey       = "user" // gin context key for the authenticated user
)

// Authenticator resolves session tokens to users
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	RequireAdmin(ctx context.Context, token string) (*domain.User, error)
}

// SessionToken extracts the token from X-Session-Token or an Authorization bearer header
func SessionToken(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(SessionHeader)); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

// SessionAuth requires a valid session and stores its user in the context
func SessionAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Authenticate(c.Request.Context(), SessionToken(c))
		if err != nil {
			render.Abort(c, err) // 401, or 503 when the session store is down
			return
		}
		c.Set(userKey, user) // Store user in context
		c.Next()             // Proceed to the next handler
	}
}

// CurrentUser returns the user stored by SessionAuth or AdminOnly
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}
