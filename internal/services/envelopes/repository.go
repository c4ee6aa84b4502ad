package envelopes

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/killallgit/wavepng/internal/models"
)

// repository implements EnvelopeRepository
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new envelope repository
func NewRepository(db *gorm.DB) EnvelopeRepository {
	return &repository{db: db}
}

// GetByKey retrieves an envelope set by cache key
func (r *repository) GetByKey(ctx context.Context, key string) (*models.EnvelopeSet, error) {
	var set models.EnvelopeSet
	err := r.db.WithContext(ctx).
		Where("cache_key = ?", key).
		First(&set).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnvelopesNotFound
		}
		return nil, err
	}

	return &set, nil
}

// Create saves a new envelope set
func (r *repository) Create(ctx context.Context, set *models.EnvelopeSet) error {
	return r.db.WithContext(ctx).Create(set).Error
}

// Update replaces the envelope set stored under set.CacheKey
func (r *repository) Update(ctx context.Context, set *models.EnvelopeSet) error {
	if set.ID == 0 {
		var existing models.EnvelopeSet
		err := r.db.WithContext(ctx).
			Select("id", "created_at").
			Where("cache_key = ?", set.CacheKey).
			First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEnvelopesNotFound
			}
			return err
		}
		set.ID = existing.ID
		set.CreatedAt = existing.CreatedAt
	}
	return r.db.WithContext(ctx).Save(set).Error
}

// DeleteByKey removes an envelope set by cache key. Cache rows are deleted
// permanently so the key can be stored again.
func (r *repository) DeleteByKey(ctx context.Context, key string) error {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("cache_key = ?", key).
		Delete(&models.EnvelopeSet{})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrEnvelopesNotFound
	}

	return nil
}

// DeleteStale removes entries for path recorded against another file version
func (r *repository) DeleteStale(ctx context.Context, path string, size, modNs int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("source_path = ? AND (source_size <> ? OR source_mod_ns <> ?)", path, size, modNs).
		Delete(&models.EnvelopeSet{})

	return result.RowsAffected, result.Error
}

// Exists checks if an envelope set is cached under key
func (r *repository) Exists(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.EnvelopeSet{}).
		Where("cache_key = ?", key).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Count returns the number of cached envelope sets
func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EnvelopeSet{}).Count(&count).Error
	return count, err
}

// Stats summarises the cached envelope sets
func (r *repository) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := r.db.WithContext(ctx).
		Model(&models.EnvelopeSet{}).
		Select("COUNT(*) AS entries, COUNT(DISTINCT source_path) AS sources, COALESCE(SUM(LENGTH(envelope_data)), 0) AS bytes").
		Scan(&stats).Error
	return stats, err
}

// DeleteAll removes every envelope set
func (r *repository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("1 = 1").
		Delete(&models.EnvelopeSet{})

	return result.RowsAffected, result.Error
}
