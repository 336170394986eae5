// Package session keeps opaque session tokens in Redis with a sliding TTL.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"camera_market/internal/utils"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// ErrMalformed means a session entry exists but does not hold a usable payload.
var ErrMalformed = errors.New("malformed session payload")

// Payload is the value stored under session:{token}.
type Payload struct {
	UserID string `json:"user_id"`
}

// Store maps session tokens to user ids.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewStore builds a Redis-backed session store with the given lifetime.
func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// TTL is the configured session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Key returns the cache key for token.
func Key(token string) string {
	return keyPrefix + token
}

// Create issues a new token for userID.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	token, err := utils.NewSessionToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	if err := utils.SetCache(ctx, s.rdb, Key(token), Payload{UserID: userID}, s.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Lookup returns the user id bound to token.
// found is false on a miss; ErrMalformed is returned for undecodable or empty payloads.
func (s *Store) Lookup(ctx context.Context, token string) (userID string, found bool, err error) {
	var payload Payload
	found, err = utils.GetCache(ctx, s.rdb, Key(token), &payload)
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return "", true, ErrMalformed
		}
		return "", false, err
	}
	if !found {
		return "", false, nil
	}
	if payload.UserID == "" {
		return "", true, ErrMalformed
	}
	return payload.UserID, true, nil
}

// Touch extends the session to a full TTL from now.
func (s *Store) Touch(ctx context.Context, token string) error {
	return utils.ExpireCache(ctx, s.rdb, Key(token), s.ttl)
}

// Revoke deletes the session. Unknown tokens are not an error.
func (s *Store) Revoke(ctx context.Context, token string) error {
	return utils.DeleteCache(ctx, s.rdb, Key(token))
}
