package utils

import (
	"crypto/rand"  // Cryptographically secure randomness
	"encoding/hex" // Hex encoding
)

// SessionTokenBytes is the entropy of a session token (256 bits)
const SessionTokenBytes = 32

// NewSessionToken returns an opaque, unguessable session token
func NewSessionToken() (string, error) {
	b := make([]byte, SessionTokenBytes) // Random buffer
	if _, err := rand.Read(b); err != nil {
		return "", err // Entropy source failed
	}
	return hex.EncodeToString(b), nil // 64 hex characters
}
