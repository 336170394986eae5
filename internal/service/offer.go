package service

import (
	"context"
	"errors"
	"strings"

	"camera_market/internal/apperror"
	"camera_market/internal/db"
	"camera_market/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxNotesLen = 500

// OfferInput is a trade-in submission.
type OfferInput struct {
	CameraTitle       string
	Brand             string
	Condition         string
	AskingPrice       decimal.Decimal
	PreferredCurrency string
	Notes             *string
	ImageGallery      []string
}

// OfferService handles trade-in offers and the admin decisions on them.
type OfferService struct {
	db *gorm.DB
}

// NewOfferService wires offers to their store.
func NewOfferService(gdb *gorm.DB) *OfferService {
	return &OfferService{db: gdb}
}

// Submit records a pending offer for user.
func (s *OfferService) Submit(ctx context.Context, user *domain.User, in OfferInput) (*domain.Offer, error) {
	offer := &domain.Offer{
		UserID:      user.ID,
		CameraTitle: strings.TrimSpace(in.CameraTitle),
		Brand:       strings.TrimSpace(in.Brand),
		Condition:   strings.TrimSpace(in.Condition),
		Status:      domain.OfferPending,
	}
	if offer.CameraTitle == "" {
		return nil, apperror.InvalidInput("camera_title", "camera_title is required")
	}
	if offer.Brand == "" {
		return nil, apperror.InvalidInput("brand", "brand is required")
	}
	if offer.Condition == "" {
		return nil, apperror.InvalidInput("condition", "condition is required")
	}
	cents, err := priceCents("asking_price", in.AskingPrice)
	if err != nil {
		return nil, err
	}
	offer.AskingPriceCents = cents
	currency, err := currencyCode("preferred_currency", in.PreferredCurrency, user.PreferredCurrency)
	if err != nil {
		return nil, err
	}
	offer.PreferredCurrency = currency
	if in.Notes != nil {
		if n := len([]rune(*in.Notes)); n < 1 || n > maxNotesLen {
			return nil, apperror.InvalidInput("notes", "notes must be between 1 and 500 characters")
		}
		offer.Notes = in.Notes
	}
	if len(in.ImageGallery) < domain.MinOfferImages {
		return nil, apperror.InvalidInput("image_gallery", "at least 3 images are required")
	}
	offer.ImageGallery = in.ImageGallery

	if err := s.db.WithContext(ctx).Create(offer).Error; err != nil {
		return nil, db.Unavailable(err)
	}

	logrus.WithFields(logrus.Fields{"offer_id": offer.ID, "user_id": user.ID}).Info("Offer submitted")
	return offer, nil
}

// ParseOfferAction accepts only the decided statuses: accepted, declined or countered.
func ParseOfferAction(action string) (domain.OfferStatus, error) {
	switch status := domain.OfferStatus(strings.ToLower(strings.TrimSpace(action))); status {
	case domain.OfferAccepted, domain.OfferDeclined, domain.OfferCountered:
		return status, nil
	}
	return "", apperror.InvalidInput("action", "action must be accepted, declined or countered")
}

// Decide applies a decision by an admin or the offer's owner.
// Decisions may be revised; a non-counter decision clears the counter amount.
func (s *OfferService) Decide(ctx context.Context, offerID uuid.UUID, actor *domain.User, action domain.OfferStatus, counter *decimal.Decimal) (*domain.Offer, error) {
	var offer domain.Offer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Take(&offer, "id = ?", offerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("offer", offerID.String())
		}
		if err != nil {
			return db.Unavailable(err)
		}
		if !actor.IsAdmin && offer.UserID != actor.ID {
			return apperror.Forbidden("not allowed to decide this offer")
		}

		var counterCents *int64
		switch action {
		case domain.OfferAccepted, domain.OfferDeclined:
		case domain.OfferCountered:
			if counter == nil {
				return apperror.InvalidInput("counter_amount", "counter_amount is required for countered action")
			}
			cents, err := priceCents("counter_amount", *counter)
			if err != nil {
				return err
			}
			counterCents = &cents
		default:
			return apperror.InvalidInput("action", "action must be accepted, declined or countered")
		}

		offer.Decide(action, counterCents)
		err = tx.Model(&offer).
			Select("status", "counter_offer_cents", "updated_at").
			Updates(&offer).Error
		if err != nil {
			return db.Unavailable(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"offer_id": offer.ID, "actor_id": actor.ID, "status": offer.Status}).Info("Offer decided")
	return &offer, nil
}

// ListMine returns the user's own offers, newest first.
func (s *OfferService) ListMine(ctx context.Context, user *domain.User) ([]domain.Offer, error) {
	var offers []domain.Offer
	err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).Order("created_at DESC").Find(&offers).Error
	if err != nil {
		return nil, db.Unavailable(err)
	}
	return offers, nil
}

// ListAll returns every offer, newest first. Admin only.
func (s *OfferService) ListAll(ctx context.Context, actor *domain.User) ([]domain.Offer, error) {
	if !actor.IsAdmin {
		return nil, apperror.Forbidden("admin access required")
	}
	var offers []domain.Offer
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&offers).Error; err != nil {
		return nil, db.Unavailable(err)
	}
	return offers, nil
}
