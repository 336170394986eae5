package api

import (
	"net/http" // HTTP status codes

	"camera_market/internal/api/render" // Error responses
	"camera_market/internal/apperror"   // Error taxonomy
	"camera_market/internal/service"    // Business rules

	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/google/uuid"   // UUID path parameters
)

// parseID reads a UUID path parameter
func parseID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.InvalidInput(name, name+" must be a UUID")
	}
	return id, nil
}

// ListCamerasHandler returns the whole catalog, served from cache when warm
func ListCamerasHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := catalog.List(c.Request.Context())
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": views})
	}
}

// GetCameraHandler returns one camera
func GetCameraHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			render.Error(c, err)
			return
		}
		camera, err := catalog.Get(c.Request.Context(), id)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, service.NewCameraView(camera))
	}
}
