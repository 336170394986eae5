package utils

import (
	"errors" // Error inspection
	"fmt"    // Error wrapping

	"golang.org/x/crypto/bcrypt" // Password hashing
)

// MaxPasswordBytes is the bcrypt input limit
const MaxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify for a wrong password
var ErrPasswordMismatch = errors.New("password mismatch")

// PasswordHasher hashes and verifies passwords with bcrypt
type PasswordHasher struct {
	cost int // bcrypt work factor
}

// NewPasswordHasher creates a hasher; cost <= 0 means bcrypt.DefaultCost
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of password
func (p *PasswordHasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", fmt.Errorf("password must be %d bytes or fewer", MaxPasswordBytes) // bcrypt would truncate silently
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify checks password against a stored hash
func (p *PasswordHasher) Verify(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch // Wrong password
	}
	return err // nil on match, or a malformed hash
}
