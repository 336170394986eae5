package service

import (
	"context"
	"errors"
	"time"

	"camera_market/internal/apperror"
	"camera_market/internal/db"
	"camera_market/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CatalogInvalidator drops the cached catalog listing.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context)
}

// CartService manages per-user carts. A camera sits in at most one cart at a time.
type CartService struct {
	db      *gorm.DB
	catalog CatalogInvalidator
	now     func() time.Time
}

// NewCartService wires the cart to its store.
func NewCartService(gdb *gorm.DB, catalog CatalogInvalidator) *CartService {
	return &CartService{db: gdb, catalog: catalog, now: time.Now}
}

// List returns the user's cart, newest first, with each camera loaded.
func (s *CartService) List(ctx context.Context, user *domain.User) ([]domain.CartItem, error) {
	var items []domain.CartItem
	err := s.db.WithContext(ctx).
		Preload("Camera").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, db.Unavailable(err)
	}
	return items, nil
}

// Add reserves a camera in the user's cart. Adding a camera the user already holds is a no-op.
func (s *CartService) Add(ctx context.Context, user *domain.User, cameraID uuid.UUID) (*domain.CartItem, error) {
	var item domain.CartItem
	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var camera domain.Camera
		err := tx.Take(&camera, "id = ?", cameraID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("camera", cameraID.String())
		}
		if err != nil {
			return db.Unavailable(err)
		}
		if camera.Status == domain.CameraSold {
			return apperror.InvalidState("camera already sold")
		}

		err = tx.Where("camera_id = ?", cameraID).Take(&item).Error
		switch {
		case err == nil:
			if item.UserID != user.ID {
				return apperror.Conflict("camera is already reserved in another cart")
			}
			item.Camera = &camera
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return db.Unavailable(err)
		}

		item = domain.CartItem{UserID: user.ID, CameraID: cameraID}
		// The savepoint keeps the transaction usable after a unique violation.
		err = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(&item).Error
		})
		switch {
		case err == nil:
			item.Camera = &camera
			created = true
			return nil
		case !db.IsUniqueViolation(err):
			return db.Unavailable(err)
		}

		// Another request inserted first; the unique index decides who holds the camera.
		var holder domain.CartItem
		if err := tx.Where("camera_id = ?", cameraID).Take(&holder).Error; err == nil && holder.UserID == user.ID {
			item = holder
			item.Camera = &camera
			return nil
		}
		return apperror.Conflict("camera is already reserved in another cart")
	})
	if errors.Is(err, apperror.ErrConflict) {
		// Snapshot reads can hide a winner that committed after this transaction began.
		if own, ok := s.ownedItem(ctx, user.ID, cameraID); ok {
			return own, nil
		}
	}
	if err != nil {
		return nil, err
	}

	if created {
		s.catalog.Invalidate(ctx)
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "camera_id": cameraID}).Info("Camera added to cart")
	}
	return &item, nil
}

func (s *CartService) ownedItem(ctx context.Context, userID, cameraID uuid.UUID) (*domain.CartItem, bool) {
	var item domain.CartItem
	err := s.db.WithContext(ctx).
		Preload("Camera").
		Where("user_id = ? AND camera_id = ?", userID, cameraID).
		Take(&item).Error
	if err != nil {
		return nil, false
	}
	return &item, true
}

// Remove takes a camera out of the user's cart.
func (s *CartService) Remove(ctx context.Context, user *domain.User, cameraID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND camera_id = ?", user.ID, cameraID).
		Delete(&domain.CartItem{})
	if res.Error != nil {
		return db.Unavailable(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("cart item", cameraID.String())
	}
	s.catalog.Invalidate(ctx)

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "camera_id": cameraID}).Info("Camera removed from cart")
	return nil
}

// Checkout marks every camera in the cart sold and empties the cart in one transaction.
// It returns the number of items purchased; an empty cart purchases nothing.
func (s *CartService) Checkout(ctx context.Context, user *domain.User) (int, error) {
	now := s.now()
	purchased := 0

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []domain.CartItem
		if err := tx.Preload("Camera").Where("user_id = ?", user.ID).Find(&items).Error; err != nil {
			return db.Unavailable(err)
		}
		if len(items) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ID)
			if item.Camera == nil {
				continue
			}
			item.Camera.MarkSold(now)
			err := tx.Model(item.Camera).
				Select("status", "sold_at").
				Updates(item.Camera).Error
			if err != nil {
				return db.Unavailable(err)
			}
		}
		if err := tx.Where("id IN ?", ids).Delete(&domain.CartItem{}).Error; err != nil {
			return db.Unavailable(err)
		}
		purchased = len(items)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if purchased > 0 {
		s.catalog.Invalidate(ctx)
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "items": purchased}).Info("Checkout completed")
	}
	return purchased, nil
}
