package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"camera_market/internal/apperror"
	"camera_market/internal/db"
	"camera_market/internal/domain"
	"camera_market/internal/money"
	"camera_market/internal/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	catalogCacheKey   = "cameras:all"
	catalogVersionKey = "cameras:all:version"
	catalogCacheTTL   = 5 * time.Minute

	catalogRebuildTimeout = 10 * time.Second
)

// storeIfCurrentScript writes the listing only if no invalidation happened since the rebuild started.
// KEYS[1] = listing key, KEYS[2] = version key, ARGV = version seen, payload, ttl seconds
var storeIfCurrentScript = redis.NewScript(`
local current = redis.call('GET', KEYS[2])
if current == false then current = '0' end
if current ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[1], ARGV[2], 'EX', tonumber(ARGV[3]))
return 1
`)

// CameraView is the public listing shape; Price is always derived from PriceCents.
type CameraView struct {
	ID           uuid.UUID           `json:"id"`
	Title        string              `json:"title"`
	Brand        string              `json:"brand"`
	Description  string              `json:"description"`
	Price        float64             `json:"price"`
	PriceCents   int64               `json:"price_cents"`
	Currency     string              `json:"currency"`
	Condition    string              `json:"condition"`
	Status       domain.CameraStatus `json:"status"`
	ImagePath    *string             `json:"image_path"`
	ImageGallery []string            `json:"image_gallery"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	SoldAt       *time.Time          `json:"sold_at"`
}

// NewCameraView projects a camera row.
func NewCameraView(c *domain.Camera) CameraView {
	gallery := []string(c.ImageGallery)
	if gallery == nil {
		gallery = []string{}
	}
	return CameraView{
		ID:           c.ID,
		Title:        c.Title,
		Brand:        c.Brand,
		Description:  c.Description,
		Price:        money.CentsToFloat(c.PriceCents),
		PriceCents:   c.PriceCents,
		Currency:     c.Currency,
		Condition:    c.Condition,
		Status:       c.Status,
		ImagePath:    c.ImagePath,
		ImageGallery: gallery,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		SoldAt:       c.SoldAt,
	}
}

// CameraInput creates a catalog entry.
type CameraInput struct {
	Title        string
	Brand        string
	Description  string
	Condition    string
	Price        decimal.Decimal
	Currency     string
	ImagePath    *string
	ImageGallery []string
}

// CameraPatch updates only the non-nil fields.
type CameraPatch struct {
	Title        *string
	Brand        *string
	Description  *string
	Condition    *string
	Price        *decimal.Decimal
	Currency     *string
	Status       *domain.CameraStatus
	ImagePath    *string
	ImageGallery *[]string
}

// CatalogService owns the camera catalog and its cached listing.
type CatalogService struct {
	db    *gorm.DB
	cache redis.Cmdable
	group singleflight.Group
	now   func() time.Time
}

// NewCatalogService wires the catalog to its store and cache.
func NewCatalogService(gdb *gorm.DB, cache redis.Cmdable) *CatalogService {
	return &CatalogService{db: gdb, cache: cache, now: time.Now}
}

// List returns every camera, newest first, through the read-through cache.
// Cache failures degrade to a database read; they are never surfaced.
func (s *CatalogService) List(ctx context.Context) ([]CameraView, error) {
	var cached []CameraView
	found, err := utils.GetCacheOrEvict(ctx, s.cache, catalogCacheKey, &cached)
	switch {
	case err == nil && found:
		for i := range cached {
			cached[i].Price = money.CentsToFloat(cached[i].PriceCents)
		}
		return cached, nil
	case errors.Is(err, utils.ErrCorruptEntry):
		logrus.WithField("key", catalogCacheKey).Warn("Evicted corrupt catalog cache entry")
	case err != nil:
		logrus.WithFields(logrus.Fields{"key": catalogCacheKey, "error": err.Error()}).Warn("Catalog cache read failed")
	}

	// Concurrent misses share one rebuild. It must not die with the first caller's request.
	v, err, _ := s.group.Do(catalogCacheKey, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogRebuildTimeout)
		defer cancel()
		return s.rebuild(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]CameraView), nil
}

func (s *CatalogService) rebuild(ctx context.Context) ([]CameraView, error) {
	version, verErr := s.version(ctx)

	var cameras []domain.Camera
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&cameras).Error; err != nil {
		return nil, db.Unavailable(err)
	}
	views := make([]CameraView, 0, len(cameras))
	for i := range cameras {
		views = append(views, NewCameraView(&cameras[i]))
	}

	if verErr != nil {
		return views, nil // cache is down, skip the write
	}
	if _, err := s.storeIfCurrent(ctx, views, version); err != nil {
		logrus.WithFields(logrus.Fields{"key": catalogCacheKey, "error": err.Error()}).Warn("Catalog cache write failed")
	}
	return views, nil
}

func (s *CatalogService) version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.CallTimeout)
	defer cancel()
	v, err := s.cache.Get(ctx, catalogVersionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return v, err
}

func (s *CatalogService) storeIfCurrent(ctx context.Context, views []CameraView, version string) (bool, error) {
	payload, err := jsonMarshal(views)
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, utils.CallTimeout)
	defer cancel()
	stored, err := storeIfCurrentScript.Run(ctx, s.cache,
		[]string{catalogCacheKey, catalogVersionKey},
		version, payload, strconv.Itoa(int(catalogCacheTTL.Seconds())),
	).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Invalidate drops the cached listing. Every committed catalog or cart mutation calls it.
func (s *CatalogService) Invalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, utils.CallTimeout)
	defer cancel()
	_, err := s.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, catalogVersionKey)
		pipe.Del(ctx, catalogCacheKey)
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": catalogCacheKey, "error": err.Error()}).Error("Catalog cache invalidation failed")
	}
	// A rebuild already in flight may have read rows from before this write.
	// Later readers start their own instead of joining it.
	s.group.Forget(catalogCacheKey)
}

// Get returns a single camera.
func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*domain.Camera, error) {
	var camera domain.Camera
	err := s.db.WithContext(ctx).Take(&camera, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("camera", id.String())
	}
	if err != nil {
		return nil, db.Unavailable(err)
	}
	return &camera, nil
}

// Create adds a camera to the catalog.
func (s *CatalogService) Create(ctx context.Context, in CameraInput) (*domain.Camera, error) {
	camera := &domain.Camera{
		Title:        strings.TrimSpace(in.Title),
		Brand:        strings.TrimSpace(in.Brand),
		Description:  in.Description,
		Condition:    in.Condition,
		ImagePath:    in.ImagePath,
		ImageGallery: in.ImageGallery,
		Status:       domain.CameraAvailable,
	}
	if camera.Title == "" {
		return nil, apperror.InvalidInput("title", "title is required")
	}
	if camera.Brand == "" {
		return nil, apperror.InvalidInput("brand", "brand is required")
	}
	cents, err := priceCents("price", in.Price)
	if err != nil {
		return nil, err
	}
	camera.PriceCents = cents
	currency, err := currencyCode("currency", in.Currency, "USD")
	if err != nil {
		return nil, err
	}
	camera.Currency = currency

	if err := s.db.WithContext(ctx).Create(camera).Error; err != nil {
		return nil, db.Unavailable(err)
	}
	s.Invalidate(ctx)

	logrus.WithFields(logrus.Fields{"camera_id": camera.ID}).Info("Camera created")
	return camera, nil
}

// Update applies a partial change to a camera.
func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, patch CameraPatch) (*domain.Camera, error) {
	var camera domain.Camera
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Take(&camera, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("camera", id.String())
		}
		if err != nil {
			return db.Unavailable(err)
		}
		if err := applyCameraPatch(&camera, patch, s.now()); err != nil {
			return err
		}
		if err := tx.Save(&camera).Error; err != nil {
			return db.Unavailable(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx)

	logrus.WithFields(logrus.Fields{"camera_id": camera.ID, "status": camera.Status}).Info("Camera updated")
	return &camera, nil
}

func applyCameraPatch(camera *domain.Camera, patch CameraPatch, now time.Time) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return apperror.InvalidInput("title", "title is required")
		}
		camera.Title = title
	}
	if patch.Brand != nil {
		brand := strings.TrimSpace(*patch.Brand)
		if brand == "" {
			return apperror.InvalidInput("brand", "brand is required")
		}
		camera.Brand = brand
	}
	if patch.Description != nil {
		camera.Description = *patch.Description
	}
	if patch.Condition != nil {
		camera.Condition = *patch.Condition
	}
	if patch.Price != nil {
		cents, err := priceCents("price", *patch.Price)
		if err != nil {
			return err
		}
		camera.PriceCents = cents
	}
	if patch.Currency != nil {
		currency, err := currencyCode("currency", *patch.Currency, "")
		if err != nil {
			return err
		}
		camera.Currency = currency
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return apperror.InvalidInput("status", "status must be available, reserved or sold")
		}
		camera.SetStatus(*patch.Status, now)
	}
	if patch.ImagePath != nil {
		camera.ImagePath = patch.ImagePath
	}
	if patch.ImageGallery != nil {
		camera.ImageGallery = *patch.ImageGallery
	}
	return nil
}

// Delete removes a camera together with any cart item that references it.
func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("camera_id = ?", id).Delete(&domain.CartItem{})
		if res.Error != nil {
			return db.Unavailable(res.Error)
		}
		res = tx.Delete(&domain.Camera{}, "id = ?", id)
		if res.Error != nil {
			return db.Unavailable(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("camera", id.String())
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.Invalidate(ctx)

	logrus.WithFields(logrus.Fields{"camera_id": id}).Info("Camera deleted")
	return nil
}
