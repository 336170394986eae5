package api

import (
	"net/http" // HTTP status codes

	"camera_market/internal/media"      // Upload storage
	"camera_market/internal/middleware" // Auth, rate limiting and request logs
	"camera_market/internal/service"    // Business rules

	"github.com/gin-gonic/gin" // Gin web framework
)

// Deps are the services the HTTP surface is built from
type Deps struct {
	Auth         *service.AuthService
	Catalog      *service.CatalogService
	Cart         *service.CartService
	Offers       *service.OfferService
	Exchange     *service.ExchangeService
	Media        *service.MediaService
	MediaStore   media.Store
	LoginLimiter *middleware.FixedWindowLimiter // nil disables limiting
}

// NewRouter registers every route on a fresh gin engine
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLog())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "camera market API"})
	})

	// Uploaded media: files on disk, or a redirect into object storage
	switch store := d.MediaStore.(type) {
	case *media.DiskStore:
		r.Static(media.PublicPrefix, store.Root())
	case Presigner:
		r.GET(media.PublicPrefix+"/*key", ServeObjectHandler(store))
	}

	session := middleware.SessionAuth(d.Auth) // Any logged-in user
	admin := middleware.AdminOnly(d.Auth)     // Logged-in admins only
	limited := middleware.RateLimit(d.LoginLimiter, "auth")

	authGroup := r.Group("/auth")
	authGroup.POST("/register", limited, RegisterHandler(d.Auth)) // Registration endpoint
	authGroup.POST("/login", limited, LoginHandler(d.Auth))       // Login endpoint
	authGroup.POST("/logout", LogoutHandler(d.Auth))              // Logout endpoint
	authGroup.GET("/me", session, MeHandler())                    // Current user endpoint

	cameras := r.Group("/cameras")
	cameras.GET("", ListCamerasHandler(d.Catalog))
	cameras.GET("/:id", GetCameraHandler(d.Catalog))
	cameras.POST("", admin, CreateCameraHandler(d.Catalog))
	cameras.PATCH("/:id", admin, UpdateCameraHandler(d.Catalog))
	cameras.DELETE("/:id", admin, DeleteCameraHandler(d.Catalog))

	cart := r.Group("/cart", session)
	cart.GET("", ListCartHandler(d.Cart))
	cart.POST("", AddToCartHandler(d.Cart))
	cart.POST("/checkout", CheckoutHandler(d.Cart))
	cart.DELETE("/:camera_id", RemoveFromCartHandler(d.Cart))

	offers := r.Group("/offers")
	offers.POST("", session, SubmitOfferHandler(d.Offers))
	offers.GET("/me", session, MyOffersHandler(d.Offers))
	offers.GET("/admin", admin, ListAllOffersHandler(d.Offers))
	offers.POST("/:id/decision", session, DecideOfferHandler(d.Offers))

	r.GET("/currency/rates", RatesHandler(d.Exchange))
	r.POST("/media/upload", session, UploadMediaHandler(d.Media))

	return r
}
