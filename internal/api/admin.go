package api

import (
	"net/http" // HTTP status codes

	"camera_market/internal/api/render" // Error responses
	"camera_market/internal/domain"     // Importing domain models
	"camera_market/internal/middleware" // Session helpers
	"camera_market/internal/service"    // Business rules

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact prices
)

// CameraRequest is the body of POST /cameras
type CameraRequest struct {
	Title        string          `json:"title" binding:"required"` // Listing title
	Brand        string          `json:"brand" binding:"required"` // Manufacturer
	Description  string          `json:"description"`              // Free text
	Condition    string          `json:"condition"`                // Condition text
	Price        decimal.Decimal `json:"price"`                    // Must be > 0
	Currency     string          `json:"currency"`                 // Defaults to USD
	ImagePath    *string         `json:"image_path"`               // Primary image
	ImageGallery []string        `json:"image_gallery"`            // Gallery paths
}

// CameraPatchRequest is the body of PATCH /cameras/:id; absent fields are left untouched
type CameraPatchRequest struct {
	Title        *string              `json:"title"`
	Brand        *string              `json:"brand"`
	Description  *string              `json:"description"`
	Condition    *string              `json:"condition"`
	Price        *decimal.Decimal     `json:"price"`
	Currency     *string              `json:"currency"`
	Status       *domain.CameraStatus `json:"status"`
	ImagePath    *string              `json:"image_path"`
	ImageGallery *[]string            `json:"image_gallery"`
}

// CreateCameraHandler adds a camera to the catalog (admin only)
func CreateCameraHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CameraRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			render.Error(c, invalidBody())
			return
		}
		camera, err := catalog.Create(c.Request.Context(), service.CameraInput{
			Title:        req.Title,
			Brand:        req.Brand,
			Description:  req.Description,
			Condition:    req.Condition,
			Price:        req.Price,
			Currency:     req.Currency,
			ImagePath:    req.ImagePath,
			ImageGallery: req.ImageGallery,
		})
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, service.NewCameraView(camera))
	}
}

// UpdateCameraHandler patches a camera (admin only)
func UpdateCameraHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			render.Error(c, err)
			return
		}
		var req CameraPatchRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			render.Error(c, invalidBody())
			return
		}
		camera, err := catalog.Update(c.Request.Context(), id, service.CameraPatch{
			Title:        req.Title,
			Brand:        req.Brand,
			Description:  req.Description,
			Condition:    req.Condition,
			Price:        req.Price,
			Currency:     req.Currency,
			Status:       req.Status,
			ImagePath:    req.ImagePath,
			ImageGallery: req.ImageGallery,
		})
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, service.NewCameraView(camera))
	}
}

// DeleteCameraHandler removes a camera and any cart item holding it (admin only)
func DeleteCameraHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c, "id")
		if err != nil {
			render.Error(c, err)
			return
		}
		if err := catalog.Delete(c.Request.Context(), id); err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"detail": "camera deleted"})
	}
}

// ListAllOffersHandler returns every offer (admin only)
func ListAllOffersHandler(offers *service.OfferService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := offers.ListAll(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}
