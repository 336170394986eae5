// Package render writes error responses in the shape every endpoint shares.
package render

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"camera_market/internal/apperror" // Error taxonomy

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`           // Error kind, e.g. "not_found"
	Message string `json:"message"`         // Human-readable message
	Field   string `json:"field,omitempty"` // Request field at fault, if any
}

// StatusOf maps an error kind to its HTTP status
func StatusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidState), errors.Is(err, apperror.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func body(c *gin.Context, err error) (int, ErrorResponse) {
	status := StatusOf(err)
	resp := ErrorResponse{Error: apperror.KindOf(err)}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message // Safe for clients
		resp.Field = appErr.Field
	}

	fields := logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"error":  err.Error(),
	}
	if appErr != nil && appErr.Cause != nil {
		fields["cause"] = appErr.Cause.Error() // Never rendered, logged only
	}
	switch status {
	case http.StatusInternalServerError:
		resp.Message = "internal server error" // Untyped errors never leak
		logrus.WithFields(fields).Error("Unhandled error")
	case http.StatusServiceUnavailable:
		logrus.WithFields(fields).Warn("Dependency unavailable")
	}
	return status, resp
}

// Error writes err as a JSON error response
func Error(c *gin.Context, err error) {
	status, resp := body(c, err)
	c.JSON(status, resp)
}

// Abort writes err and stops the handler chain
func Abort(c *gin.Context, err error) {
	status, resp := body(c, err)
	c.AbortWithStatusJSON(status, resp)
}
