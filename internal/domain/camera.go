package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // UUID identifiers
	"gorm.io/datatypes"      // JSON column types
	"gorm.io/gorm"           // GORM ORM library
)

// CameraStatus is the sale state of a catalog item
type CameraStatus string

// Camera statuses
const (
	CameraAvailable CameraStatus = "available" // Can be added to a cart
	CameraReserved  CameraStatus = "reserved"  // Held, still purchasable
	CameraSold      CameraStatus = "sold"      // Terminal, never added to a cart again
)

// Valid reports whether s is a known camera status
func (s CameraStatus) Valid() bool {
	switch s {
	case CameraAvailable, CameraReserved, CameraSold:
		return true
	}
	return false
}

// Camera Model
type Camera struct {
	ID           uuid.UUID                   `gorm:"type:char(36);primaryKey" json:"id"`                                       // Primary key
	Title        string                      `gorm:"size:160;not null" json:"title"`                                           // Listing title
	Brand        string                      `gorm:"size:80;not null" json:"brand"`                                            // Manufacturer
	Description  string                      `gorm:"type:text" json:"description"`                                             // Free text description
	PriceCents   int64                       `gorm:"not null;check:camera_price_positive,price_cents >= 0" json:"price_cents"` // Price in minor units
	Currency     string                      `gorm:"size:3;not null;default:USD" json:"currency"`                              // 3-letter currency code
	Condition    string                      `gorm:"size:80" json:"condition"`                                                 // Condition text
	Status       CameraStatus                `gorm:"size:16;not null;default:available;index" json:"status"`                   // Sale status
	ImagePath    *string                     `gorm:"size:255" json:"image_path"`                                               // Primary image, optional
	ImageGallery datatypes.JSONSlice[string] `json:"image_gallery"`                                                            // Ordered gallery paths
	CreatedAt    time.Time                   `gorm:"index" json:"created_at"`                                                  // Creation timestamp
	UpdatedAt    time.Time                   `json:"updated_at"`                                                               // Last update timestamp
	SoldAt       *time.Time                  `json:"sold_at"`                                                                  // First time the camera was sold
}

// BeforeCreate assigns a random UUID when none was set
func (c *Camera) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New() // Generate identity
	}
	if c.Status == "" {
		c.Status = CameraAvailable // Default status
	}
	return nil
}

// SetStatus changes the status; the first transition to sold stamps SoldAt, which is never cleared
func (c *Camera) SetStatus(status CameraStatus, now time.Time) {
	c.Status = status
	if status == CameraSold && c.SoldAt == nil {
		soldAt := now.UTC()
		c.SoldAt = &soldAt
	}
}

// MarkSold is SetStatus(CameraSold, now)
func (c *Camera) MarkSold(now time.Time) {
	c.SetStatus(CameraSold, now)
}
