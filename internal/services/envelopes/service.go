package envelopes

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/killallgit/wavepng/internal/models"
)

// service implements EnvelopeService
type service struct {
	repo   EnvelopeRepository
	logger *slog.Logger
}

// NewService creates a new envelope cache service
func NewService(repo EnvelopeRepository, logger *slog.Logger) EnvelopeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:   repo,
		logger: logger.With("component", "envelopes"),
	}
}

// Get retrieves the envelopes cached under key
func (s *service) Get(ctx context.Context, key string) (*models.EnvelopeSet, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	set, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrEnvelopesNotFound) {
			s.logger.Debug("failed to get envelopes", "key", key, "error", err)
		}
		return nil, err
	}

	s.logger.Debug("found cached envelopes", "key", key, "source", set.SourcePath,
		"channels", set.Channels, "width", set.Width)
	return set, nil
}

// Save stores set under its cache key
func (s *service) Save(ctx context.Context, set *models.EnvelopeSet) error {
	if set.CacheKey == "" {
		return ErrInvalidKey
	}
	if len(set.EnvelopeData) == 0 || set.Channels == 0 {
		return ErrInvalidEnvelopeData
	}

	if set.SourcePath != "" {
		pruned, err := s.repo.DeleteStale(ctx, set.SourcePath, set.SourceSize, set.SourceModNs)
		if err != nil {
			return err
		}
		if pruned > 0 {
			s.logger.Debug("pruned stale envelopes", "source", set.SourcePath, "count", pruned)
		}
	}

	exists, err := s.repo.Exists(ctx, set.CacheKey)
	if err != nil {
		return err
	}

	if exists {
		s.logger.Debug("updating cached envelopes", "key", set.CacheKey)
		return s.repo.Update(ctx, set)
	}

	s.logger.Debug("caching envelopes", "key", set.CacheKey, "source", set.SourcePath)
	err = s.repo.Create(ctx, set)
	if err != nil {
		// a concurrent render stored the same key first
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			s.logger.Debug("envelopes already cached by another request", "key", set.CacheKey)
			set.ID = 0
			return s.repo.Update(ctx, set)
		}
		return err
	}
	return nil
}

// Delete removes the entry cached under key
func (s *service) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	s.logger.Debug("deleting cached envelopes", "key", key)
	return s.repo.DeleteByKey(ctx, key)
}

// Stats summarises the cache contents
func (s *service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

// Purge removes every entry
func (s *service) Purge(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("purged envelope cache", "entries", n)
	return n, nil
}
