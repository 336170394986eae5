package api

import (
	"net/http" // HTTP status codes

	"camera_market/internal/api/render" // Error responses
	"camera_market/internal/middleware" // Session helpers
	"camera_market/internal/service"    // Business rules

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact prices
)

// OfferRequest is the body of POST /offers
type OfferRequest struct {
	CameraTitle       string          `json:"camera_title" binding:"required"`
	Brand             string          `json:"brand" binding:"required"`
	Condition         string          `json:"condition" binding:"required"`
	AskingPrice       decimal.Decimal `json:"asking_price"`
	PreferredCurrency string          `json:"preferred_currency"`
	Notes             *string         `json:"notes"`
	ImageGallery      []string        `json:"image_gallery"`
}

// DecisionRequest is the body of POST /offers/:id/decision
type DecisionRequest struct {
	Action        string           `json:"action" binding:"required"` // accepted, declined or countered
	CounterAmount *decimal.Decimal `json:"counter_amount"`            // Required when countered
}

// SubmitOfferHandler records a trade-in offer for the caller
func SubmitOfferHandler(offers *service.OfferService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OfferRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			render.Error(c, invalidBody())
			return
		}
		offer, err := offers.Submit(c.Request.Context(), middleware.CurrentUser(c), service.OfferInput{
			CameraTitle:       req.CameraTitle,
			Brand:             req.Brand,
			Condition:         req.Condition,
			AskingPrice:       req.AskingPrice,
			PreferredCurrency: req.PreferredCurrency,
			Notes:             req.Notes,
			ImageGallery:      req.ImageGallery,
		})
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, offer)
	}
}

// MyOffersHandler lists the caller's offers
func MyOffersHandler(offers *service.OfferService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := offers.ListMine(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// DecideOfferHandler accepts, declines or counters an offer
func DecideOfferHandler(offers *service.OfferService) gin.HandlerFunc {
	return func(c *gin.Context) {
		offerID, err := parseID(c, "id")
		if err != nil {
			render.Error(c, err)
			return
		}
		var req DecisionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			render.Error(c, invalidBody())
			return
		}
		// Unknown actions never reach the service
		action, err := service.ParseOfferAction(req.Action)
		if err != nil {
			render.Error(c, err)
			return
		}
		offer, err := offers.Decide(c.Request.Context(), offerID, middleware.CurrentUser(c), action, req.CounterAmount)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, offer)
	}
}
