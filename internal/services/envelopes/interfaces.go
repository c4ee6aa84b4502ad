package envelopes

import (
	"context"

	"github.com/killallgit/wavepng/internal/models"
)

// Stats summarises the envelope cache
type Stats struct {
	Entries int64 `json:"entries"`
	Sources int64 `json:"sources"`
	Bytes   int64 `json:"bytes"`
}

// EnvelopeService defines the interface for envelope cache operations
type EnvelopeService interface {
	// Get retrieves the envelopes cached under key
	Get(ctx context.Context, key string) (*models.EnvelopeSet, error)

	// Save stores set, replacing any entry with the same key and pruning
	// entries for older versions of the same source file
	Save(ctx context.Context, set *models.EnvelopeSet) error

	// Delete removes the entry cached under key
	Delete(ctx context.Context, key string) error

	// Stats summarises the cache contents
	Stats(ctx context.Context) (Stats, error)

	// Purge removes every entry and returns how many were removed
	Purge(ctx context.Context) (int64, error)
}

// EnvelopeRepository defines the interface for envelope data access
type EnvelopeRepository interface {
	// GetByKey retrieves an envelope set by cache key
	GetByKey(ctx context.Context, key string) (*models.EnvelopeSet, error)

	// Create saves a new envelope set
	Create(ctx context.Context, set *models.EnvelopeSet) error

	// Update replaces the envelope set stored under set.CacheKey
	Update(ctx context.Context, set *models.EnvelopeSet) error

	// DeleteByKey removes an envelope set by cache key
	DeleteByKey(ctx context.Context, key string) error

	// DeleteStale removes entries for path recorded with a different size or
	// modification time
	DeleteStale(ctx context.Context, path string, size, modNs int64) (int64, error)

	// Exists checks if an envelope set is cached under key
	Exists(ctx context.Context, key string) (bool, error)

	// Count returns the number of cached envelope sets
	Count(ctx context.Context) (int64, error)

	// Stats summarises the cached envelope sets
	Stats(ctx context.Context) (Stats, error)

	// DeleteAll removes every envelope set
	DeleteAll(ctx context.Context) (int64, error)
}
