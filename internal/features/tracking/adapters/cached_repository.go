package adapters

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"sparrow-parcel/internal/core/cache"
	"sparrow-parcel/internal/core/logger"
	"sparrow-parcel/internal/features/tracking/domain"
	"sparrow-parcel/internal/features/tracking/ports"
)

const cacheKeyPrefix = "tracking:"

// CachedTrackingRepository decorates a TrackingRepository with a read-through
// cache on tracking-number lookups. Writes invalidate the cached entry so the
// next lookup sees the new state. Cache failures are logged and the lookup
// falls through to the inner repository.
type CachedTrackingRepository struct {
	inner ports.TrackingRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedTrackingRepository creates a new CachedTrackingRepository.
func NewCachedTrackingRepository(inner ports.TrackingRepository, c cache.Cache, ttl time.Duration) *CachedTrackingRepository {
	return &CachedTrackingRepository{inner: inner, cache: c, ttl: ttl}
}

func cacheKey(trackingNumber string) string {
	return cacheKeyPrefix + trackingNumber
}

// Insert stores a new record and drops any stale cache entry for its number.
func (r *CachedTrackingRepository) Insert(ctx context.Context, tracking *domain.Tracking) error {
	if err := r.inner.Insert(ctx, tracking); err != nil {
		return err
	}
	r.invalidate(ctx, tracking.TrackingNumber)
	return nil
}

// FindByNumber serves the lookup from cache when possible.
func (r *CachedTrackingRepository) FindByNumber(ctx context.Context, trackingNumber string) (*domain.Tracking, error) {
	key := cacheKey(trackingNumber)
	if raw, err := r.cache.Get(ctx, key); err == nil {
		var tracking domain.Tracking
		if err := json.Unmarshal(raw, &tracking); err == nil {
			return &tracking, nil
		}
		logger.Get().Warn("discarding corrupt tracking cache entry", zap.String("key", key))
		r.invalidate(ctx, trackingNumber)
	}

	tracking, err := r.inner.FindByNumber(ctx, trackingNumber)
	if err != nil || tracking == nil {
		return tracking, err
	}

	if raw, err := json.Marshal(tracking); err == nil {
		if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
			logger.Get().Warn("failed to cache tracking lookup", zap.String("key", key), zap.Error(err))
		}
	}
	return tracking, nil
}

// FindActive always hits the repository; the active set changes too often to
// cache usefully.
func (r *CachedTrackingRepository) FindActive(ctx context.Context) ([]*domain.Tracking, error) {
	return r.inner.FindActive(ctx)
}

// FindByDriver always hits the repository.
func (r *CachedTrackingRepository) FindByDriver(ctx context.Context, driverID string) ([]*domain.Tracking, error) {
	return r.inner.FindByDriver(ctx, driverID)
}

// AddEvent appends the event and drops the cached entry.
func (r *CachedTrackingRepository) AddEvent(ctx context.Context, trackingNumber string, event domain.Event) (*domain.Tracking, error) {
	tracking, err := r.inner.AddEvent(ctx, trackingNumber, event)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, trackingNumber)
	return tracking, nil
}

// SetLocation updates the location and drops the cached entry.
func (r *CachedTrackingRepository) SetLocation(ctx context.Context, trackingNumber string, location domain.CurrentLocation) (*domain.Tracking, error) {
	tracking, err := r.inner.SetLocation(ctx, trackingNumber, location)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, trackingNumber)
	return tracking, nil
}

func (r *CachedTrackingRepository) invalidate(ctx context.Context, trackingNumber string) {
	if err := r.cache.Delete(ctx, cacheKey(trackingNumber)); err != nil {
		logger.Get().Warn("failed to invalidate tracking cache",
			zap.String("trackingNumber", trackingNumber),
			zap.Error(err))
	}
}
