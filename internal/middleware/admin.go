package middleware

import (
	"errors" // Error inspection

	"camera_market/internal/api/render" // Error responses
	"camera_market/internal/apperror"   // Error taxonomy

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// AdminOnly checks the session and the admin flag on each request
func AdminOnly(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.RequireAdmin(c.Request.Context(), SessionToken(c))
		if err != nil {
			// Non-admins are worth a trace, bad tokens are not
			if errors.Is(err, apperror.ErrForbidden) {
				logrus.WithFields(logrus.Fields{
					"path":      c.FullPath(),
					"client_ip": c.ClientIP(),
				}).Warn("Admin access denied")
			}
			render.Abort(c, err)
			return
		}
		c.Set(userKey, user) // Store admin in context
		c.Next()             // If admin, proceed to the next handler
	}
}
