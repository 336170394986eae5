package api

import (
	"context"  // Presign context
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Link lifetime

	"camera_market/internal/api/render" // Error responses
	"camera_market/internal/apperror"   // Error taxonomy
	"camera_market/internal/service"    // Business rules

	"github.com/gin-gonic/gin" // Gin web framework
)

const presignExpiry = 15 * time.Minute

// Presigner issues temporary download links for stored objects
type Presigner interface {
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// UploadMediaHandler stores the images sent in the multipart "files" field
func UploadMediaHandler(mediaSvc *service.MediaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			render.Error(c, apperror.InvalidInput("files", "no files uploaded"))
			return
		}
		saved, err := mediaSvc.Upload(c.Request.Context(), form.File["files"])
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"files": saved})
	}
}

// ServeObjectHandler redirects /uploads/*key to a presigned object URL
func ServeObjectHandler(store Presigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if key == "" {
			render.Error(c, apperror.NotFound("media", c.Param("key")))
			return
		}
		url, err := store.PresignGet(c.Request.Context(), key, presignExpiry)
		if err != nil {
			render.Error(c, apperror.Unavailable("media store", err))
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, url)
	}
}
