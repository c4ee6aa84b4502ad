package cache

import (
	"context"
	"time"
)

// Cache stores encoded responses by key for a limited time
type Cache interface {
	// Get retrieves a value from the cache
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value in the cache with a TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from the cache
	Clear(ctx context.Context) error
}

// Stats provides statistics about cache usage
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Sets      int64 `json:"sets"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
	Size      int64 `json:"size"`
	MaxSize   int64 `json:"max_size"`
}

// StatsProvider interface for caches that provide statistics
type StatsProvider interface {
	Stats() Stats
}
