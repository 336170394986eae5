package api

import (
	"net/http" // HTTP status codes
	"time"     // Timestamps

	"camera_market/internal/api/render" // Error responses
	"camera_market/internal/apperror"   // Error taxonomy
	"camera_market/internal/domain"     // Importing domain models
	"camera_market/internal/middleware" // Session helpers
	"camera_market/internal/service"    // Business rules

	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/google/uuid"   // UUID identifiers
)

// AddToCartRequest is the body of POST /cart
type AddToCartRequest struct {
	CameraID string `json:"camera_id" binding:"required"` // Camera to reserve
}

// CartItemView is one cart line with its camera
type CartItemView struct {
	ID        uuid.UUID           `json:"id"`
	Camera    *service.CameraView `json:"camera"`
	CreatedAt time.Time           `json:"created_at"`
}

func newCartItemView(item *domain.CartItem) CartItemView {
	view := CartItemView{ID: item.ID, CreatedAt: item.CreatedAt}
	if item.Camera != nil {
		camera := service.NewCameraView(item.Camera)
		view.Camera = &camera
	}
	return view
}

// ListCartHandler returns the caller's cart
func ListCartHandler(cart *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := cart.List(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			render.Error(c, err)
			return
		}
		views := make([]CartItemView, 0, len(items))
		for i := range items {
			views = append(views, newCartItemView(&items[i]))
		}
		c.JSON(http.StatusOK, views)
	}
}

// AddToCartHandler reserves a camera in the caller's cart
func AddToCartHandler(cart *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddToCartRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			render.Error(c, invalidBody())
			return
		}
		cameraID, err := uuid.Parse(req.CameraID)
		if err != nil {
			render.Error(c, apperror.InvalidInput("camera_id", "camera_id must be a UUID"))
			return
		}
		item, err := cart.Add(c.Request.Context(), middleware.CurrentUser(c), cameraID)
		if err != nil {
			render.Error(c, err) // 404, 400 when sold, 409 when held elsewhere
			return
		}
		c.JSON(http.StatusOK, newCartItemView(item))
	}
}

// RemoveFromCartHandler releases a camera from the caller's cart
func RemoveFromCartHandler(cart *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cameraID, err := parseID(c, "camera_id")
		if err != nil {
			render.Error(c, err)
			return
		}
		if err := cart.Remove(c.Request.Context(), middleware.CurrentUser(c), cameraID); err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"detail": "removed from cart"})
	}
}

// CheckoutHandler buys everything in the caller's cart
func CheckoutHandler(cart *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := cart.Checkout(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"detail": "purchase recorded", "count": count})
	}
}
