package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error inspection
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// CallTimeout bounds every single cache round trip
const CallTimeout = 3 * time.Second

// ErrCorruptEntry means a cached payload could not be decoded and was evicted
var ErrCorruptEntry = errors.New("corrupt cache entry evicted")

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb redis.Cmdable, key string, dest any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout) // Bound the round trip
	defer cancel()
	val, err := rdb.Get(ctx, key).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal(val, dest) // Unmarshal JSON into dest
}

// GetCacheOrEvict is GetCache that deletes undecodable entries and reports them as a miss
func GetCacheOrEvict(ctx context.Context, rdb redis.Cmdable, key string, dest any) (bool, error) {
	found, err := GetCache(ctx, rdb, key, dest) // Plain lookup
	var syntaxErr *json.SyntaxError             // Truncated or garbage payload
	var typeErr *json.UnmarshalTypeError        // Payload of the wrong shape
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		if delErr := DeleteCache(ctx, rdb, key); delErr != nil {
			return false, delErr // Could not evict, surface the cache failure
		}
		return false, ErrCorruptEntry // Evicted, caller treats as miss
	}
	return found, err
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb redis.Cmdable, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	ctx, cancel := context.WithTimeout(ctx, CallTimeout) // Bound the round trip
	defer cancel()
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// ExpireCache resets the TTL of an existing key
func ExpireCache(ctx context.Context, rdb redis.Cmdable, key string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout) // Bound the round trip
	defer cancel()
	return rdb.Expire(ctx, key, ttl).Err() // Missing keys are not an error
}

// DeleteCache deletes a key from Redis
func DeleteCache(ctx context.Context, rdb redis.Cmdable, key string) error {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout) // Bound the round trip
	defer cancel()
	return rdb.Del(ctx, key).Err() // Delete key from Redis
}
