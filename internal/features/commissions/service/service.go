package service

import (
	"context"
	"fmt"

	"sparrow-parcel/internal/core/logger"
	"sparrow-parcel/internal/features/commissions/domain"
	"sparrow-parcel/internal/features/commissions/ports"

	"go.uber.org/zap"
)

// SettingsServiceImpl implements ports.SettingsService.
type SettingsServiceImpl struct {
	repo ports.SettingsRepository
}

// NewSettingsService creates a new SettingsServiceImpl.
func NewSettingsService(repo ports.SettingsRepository) *SettingsServiceImpl {
	return &SettingsServiceImpl{repo: repo}
}

// CreateOrUpdate upserts the settings row keyed by its delivery type.
func (s *SettingsServiceImpl) CreateOrUpdate(ctx context.Context, settings *domain.Settings) (*domain.Settings, error) {
	if !domain.ValidDeliveryType(settings.DeliveryType) {
		return nil, domain.ErrInvalidDeliveryType
	}
	return s.repo.Upsert(ctx, settings)
}

// List returns every settings row.
func (s *SettingsServiceImpl) List(ctx context.Context) ([]*domain.Settings, error) {
	return s.repo.FindAll(ctx)
}

// GetByType returns the settings row for a delivery type.
func (s *SettingsServiceImpl) GetByType(ctx context.Context, deliveryType string) (*domain.Settings, error) {
	settings, err := s.repo.FindByType(ctx, deliveryType)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, domain.ErrNotFound
	}
	return settings, nil
}

// UpdateByType applies new values to the settings row for a delivery type.
func (s *SettingsServiceImpl) UpdateByType(ctx context.Context, deliveryType string, settings *domain.Settings) (*domain.Settings, error) {
	return s.repo.UpdateByType(ctx, deliveryType, settings)
}

// DeleteByType removes the settings row for a delivery type. The default row
// is undeletable.
func (s *SettingsServiceImpl) DeleteByType(ctx context.Context, deliveryType string) (*domain.Settings, error) {
	if deliveryType == domain.DeliveryTypeDefault {
		return nil, domain.ErrDefaultUndeletable
	}
	return s.repo.DeleteByType(ctx, deliveryType)
}

// InitializeDefaults seeds the canonical settings rows, skipping types that
// already have a row.
func (s *SettingsServiceImpl) InitializeDefaults(ctx context.Context) error {
	for _, seed := range domain.DefaultSettings() {
		if err := s.repo.InsertIfAbsent(ctx, seed); err != nil {
			return fmt.Errorf("service: failed to initialize commission settings: %w", err)
		}
	}
	return nil
}

// Resolve looks up the active settings for a delivery type, falling back to
// the default row, then to the hardcoded rate.
func (s *SettingsServiceImpl) Resolve(ctx context.Context, deliveryType string) (*domain.Settings, float64, error) {
	settings, err := s.repo.FindActiveByType(ctx, deliveryType)
	if err != nil {
		return nil, 0, err
	}
	if settings == nil {
		settings, err = s.repo.FindActiveByType(ctx, domain.DeliveryTypeDefault)
		if err != nil {
			return nil, 0, err
		}
	}
	if settings == nil {
		logger.Get().Warn("no commission settings found, using fallback rate",
			zap.String("deliveryType", deliveryType),
			zap.Float64("rate", domain.FallbackCommissionRate))
		return nil, domain.FallbackCommissionRate, nil
	}
	return settings, settings.CommissionRate, nil
}
