package cache

import (
	"context"
	"time"
)

const (
	// ExpiryDefault is used when a caller passes a zero expiration.
	ExpiryDefault = 5 * time.Minute

	// ExpiryLevelCatalog is the TTL for membership level catalog lookups;
	// levels change rarely and are invalidated on write.
	ExpiryLevelCatalog = 1 * time.Hour
)

// Cache defines the interface for cache implementations
type Cache interface {
	// Get retrieves a value from the cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set adds a value to the cache with the specified expiration
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)

	// Delete removes a key from the cache
	Delete(ctx context.Context, key string)

	// DeleteByPrefix removes all keys with the given prefix
	DeleteByPrefix(ctx context.Context, prefix string)

	// Flush removes all items from the cache
	Flush(ctx context.Context)
}

// GetTyped retrieves a value from the cache and asserts it to the requested
// type. Returns nil and false on a miss or a type mismatch.
func GetTyped[T any](ctx context.Context, c Cache, key string) (*T, bool) {
	value, found := c.Get(ctx, key)
	if !found || value == nil {
		return nil, false
	}
	if typed, ok := value.(*T); ok {
		return typed, true
	}
	return nil, false
}
