package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // UUID identifiers
	"gorm.io/datatypes"      // JSON column types
	"gorm.io/gorm"           // GORM ORM library
)

// OfferStatus is the decision state of a trade-in offer
type OfferStatus string

// Offer statuses
const (
	OfferPending   OfferStatus = "pending"   // Initial state
	OfferAccepted  OfferStatus = "accepted"  // Store accepts the asking price
	OfferDeclined  OfferStatus = "declined"  // Store declines
	OfferCountered OfferStatus = "countered" // Store proposes CounterOfferCents
)

// MinOfferImages is the smallest gallery accepted with a new offer
const MinOfferImages = 3

// Offer Model
type Offer struct {
	ID                uuid.UUID                   `gorm:"type:char(36);primaryKey" json:"id"`                    // Primary key
	UserID            uuid.UUID                   `gorm:"type:char(36);not null;index" json:"user_id"`           // Foreign key to User
	CameraTitle       string                      `gorm:"size:160;not null" json:"camera_title"`                 // Offered camera title
	Brand             string                      `gorm:"size:80;not null" json:"brand"`                         // Offered camera brand
	Condition         string                      `gorm:"size:80;not null" json:"condition"`                     // Offered camera condition
	AskingPriceCents  int64                       `gorm:"not null" json:"asking_price_cents"`                    // Asking price in minor units
	PreferredCurrency string                      `gorm:"size:3;not null;default:USD" json:"preferred_currency"` // 3-letter currency code
	Notes             *string                     `gorm:"type:text" json:"notes"`                                // Seller notes, optional
	ImageGallery      datatypes.JSONSlice[string] `json:"image_gallery"`                                         // Photos of the camera
	Status            OfferStatus                 `gorm:"size:16;not null;default:pending" json:"status"`        // Decision state
	CounterOfferCents *int64                      `json:"counter_offer_cents"`                                   // Set iff Status is countered
	CreatedAt         time.Time                   `gorm:"index" json:"created_at"`                               // Creation timestamp
	UpdatedAt         time.Time                   `json:"updated_at"`                                            // Last update timestamp
}

// BeforeCreate assigns a random UUID when none was set
func (o *Offer) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New() // Generate identity
	}
	if o.Status == "" {
		o.Status = OfferPending // Offers always start pending
	}
	return nil
}

// Decide applies a decision; only countered keeps a counter amount
func (o *Offer) Decide(action OfferStatus, counterCents *int64) {
	o.Status = action
	if action == OfferCountered {
		o.CounterOfferCents = counterCents
		return
	}
	o.CounterOfferCents = nil // Any other decision clears a previous counter
}
