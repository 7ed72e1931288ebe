package ports

import (
	"context"

	"sparrow-parcel/internal/features/commissions/domain"
)

// SettingsRepository is the secondary port for commission settings persistence.
// FindActiveByType returns (nil, nil) on a miss so callers can run the
// fallback chain without error plumbing.
type SettingsRepository interface {
	Upsert(ctx context.Context, settings *domain.Settings) (*domain.Settings, error)
	FindAll(ctx context.Context) ([]*domain.Settings, error)
	FindActiveByType(ctx context.Context, deliveryType string) (*domain.Settings, error)
	FindByType(ctx context.Context, deliveryType string) (*domain.Settings, error)
	UpdateByType(ctx context.Context, deliveryType string, settings *domain.Settings) (*domain.Settings, error)
	DeleteByType(ctx context.Context, deliveryType string) (*domain.Settings, error)
	InsertIfAbsent(ctx context.Context, settings domain.Settings) error
}

// SettingsService is the primary port for commission settings operations.
type SettingsService interface {
	CreateOrUpdate(ctx context.Context, settings *domain.Settings) (*domain.Settings, error)
	List(ctx context.Context) ([]*domain.Settings, error)
	GetByType(ctx context.Context, deliveryType string) (*domain.Settings, error)
	UpdateByType(ctx context.Context, deliveryType string, settings *domain.Settings) (*domain.Settings, error)
	DeleteByType(ctx context.Context, deliveryType string) (*domain.Settings, error)
	InitializeDefaults(ctx context.Context) error

	// Resolve runs the exact-type → default → hardcoded-10% fallback chain.
	// The returned settings may be nil when both lookups miss; the rate is
	// always usable.
	Resolve(ctx context.Context, deliveryType string) (*domain.Settings, float64, error)
}
