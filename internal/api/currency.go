package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"camera_market/internal/api/render" // Error responses
	"camera_market/internal/service"    // Business rules

	"github.com/gin-gonic/gin" // Gin web framework
)

const defaultQuoteSymbols = "USD,MXN,EUR"

// RatesHandler quotes base against a comma-separated symbol list
func RatesHandler(exchange *service.ExchangeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		base := c.DefaultQuery("base", "USD")
		symbols := strings.Split(c.DefaultQuery("symbols", defaultQuoteSymbols), ",")
		quotes, err := exchange.Quote(c.Request.Context(), base, symbols)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"quotes": quotes})
	}
}
