package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // UUID identifiers
	"gorm.io/gorm"           // GORM ORM library
)

// CartItem Model
//
// CameraID carries a global unique index: a camera sits in at most one cart at a time.
type CartItem struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`                                        // Primary key
	UserID    uuid.UUID `gorm:"type:char(36);not null;index" json:"user_id"`                               // Foreign key to User
	CameraID  uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_cart_items_camera" json:"camera_id"` // Foreign key to Camera, unique
	Camera    *Camera   `gorm:"constraint:OnDelete:CASCADE;" json:"camera,omitempty"`                      // Referenced camera
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                                   // Creation timestamp
}

// BeforeCreate assigns a random UUID when none was set
func (i *CartItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New() // Generate identity
	}
	return nil
}
