package api

import (
	"net/http" // HTTP status codes

	"camera_market/internal/api/render" // Error responses
	"camera_market/internal/apperror"   // Error taxonomy
	"camera_market/internal/middleware" // Session helpers
	"camera_market/internal/service"    // Business rules

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`     // Display name must be provided
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// invalidBody is returned whenever a request body cannot be bound
func invalidBody() error {
	return apperror.InvalidInput("body", "invalid request body")
}

// RegisterHandler creates a regular user account
func RegisterHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			render.Error(c, invalidBody())
			return
		}
		user, err := auth.Register(c.Request.Context(), service.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			render.Error(c, err) // Validation, duplicate email or store failure
			return
		}
		c.JSON(http.StatusCreated, user) // Return the new user
	}
}

// LoginHandler verifies credentials and opens a session
func LoginHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			render.Error(c, invalidBody())
			return
		}
		res, err := auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, res) // Token, lifetime and user
	}
}

// LogoutHandler revokes the presented session
func LogoutHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"detail": "session closed"})
	}
}

// MeHandler returns the authenticated user
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, middleware.CurrentUser(c))
	}
}
