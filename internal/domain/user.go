package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // UUID identifiers
	"gorm.io/gorm"           // GORM ORM library
)

// User Model
type User struct {
	ID                uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`                    // Primary key
	Name              string     `gorm:"size:120;not null" json:"name"`                         // Display name
	Email             string     `gorm:"size:255;uniqueIndex;not null" json:"email"`            // Unique lowercase email
	PasswordHash      string     `gorm:"size:255;not null" json:"-"`                            // bcrypt hash, never serialized
	IsAdmin           bool       `gorm:"not null;default:false" json:"is_admin"`                // Admin capability flag
	PreferredCurrency string     `gorm:"size:3;not null;default:USD" json:"preferred_currency"` // 3-letter currency code
	CreatedAt         time.Time  `json:"created_at"`                                            // Creation timestamp
	CartItems         []CartItem `gorm:"constraint:OnDelete:CASCADE;" json:"-"`                 // Owned cart items
	Offers            []Offer    `gorm:"constraint:OnDelete:CASCADE;" json:"-"`                 // Owned offers
}

// BeforeCreate assigns a random UUID when none was set
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New() // Generate identity
	}
	return nil
}
