package main

import (
	"context"   // context package is needed for Redis operations
	"errors"    // Error inspection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Graceful shutdown
	"syscall"   // Signal numbers
	"time"      // Timeouts

	"camera_market/internal/api"        // Custom package for API handlers
	"camera_market/internal/config"     // Custom package for configuration
	"camera_market/internal/db"         // Database connection and migration
	"camera_market/internal/media"      // Upload storage
	"camera_market/internal/middleware" // Custom package for middleware
	"camera_market/internal/service"    // Business rules
	"camera_market/internal/session"    // Session store
	"camera_market/internal/utils"      // Password hashing

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	setupLogger(cfg) // Setup logger

	// Connect to the database and bring the schema up to date
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}

	// Sessions and caches live in separate Redis databases
	sessionRedis := newRedis(cfg, cfg.RedisDB)
	cacheRedis := newRedis(cfg, cfg.CacheRedisDB)
	defer sessionRedis.Close()
	defer cacheRedis.Close()

	store, err := newMediaStore(cfg)
	if err != nil {
		logrus.Fatalf("failed to init media store: %v", err)
	}

	auth := service.NewAuthService(gdb, session.NewStore(sessionRedis, cfg.SessionTTL()), utils.NewPasswordHasher(0), cfg.DefaultCurrency)
	catalog := service.NewCatalogService(gdb, cacheRedis)
	deps := api.Deps{
		Auth:       auth,
		Catalog:    catalog,
		Cart:       service.NewCartService(gdb, catalog),
		Offers:     service.NewOfferService(gdb),
		Exchange:   service.NewExchangeService(cfg.ExchangeAPIBase, cacheRedis),
		Media:      service.NewMediaService(store),
		MediaStore: store,
	}
	if cfg.LoginRateLimitPerMinute > 0 {
		deps.LoginLimiter, err = middleware.NewFixedWindowLimiter(cacheRedis, "ratelimit", cfg.LoginRateLimitPerMinute, time.Minute)
		if err != nil {
			logrus.Fatalf("failed to init rate limiter: %v", err)
		}
	}

	// Bootstrap administrator
	bootCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := auth.EnsureAdmin(bootCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		cancel()
		logrus.Fatalf("failed to ensure admin user: %v", err)
	}
	cancel()

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.NewRouter(deps) // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
}

// setupLogger configures the global logrus logger
func setupLogger(cfg *config.Config) {
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{}) // Machine readable in production
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel // Unknown level names fall back to info
	}
	logrus.SetLevel(level)
}

// newRedis connects to one Redis database and fails fast if it is unreachable
func newRedis(cfg *config.Config, dbNum int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       dbNum,         // Redis database number
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Test Redis connection
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.Fatalf("failed to connect to Redis db %d: %v", dbNum, err)
	}
	return client
}

// newMediaStore picks the configured upload backend
func newMediaStore(cfg *config.Config) (media.Store, error) {
	if cfg.MediaBackend == "minio" {
		return media.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	}
	return media.NewDiskStore(cfg.MediaRoot)
}
