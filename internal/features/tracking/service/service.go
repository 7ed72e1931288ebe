package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"sparrow-parcel/internal/core/logger"
	"sparrow-parcel/internal/features/tracking/domain"
	"sparrow-parcel/internal/features/tracking/ports"

	parceldomain "sparrow-parcel/internal/features/parcels/domain"
	parcelports "sparrow-parcel/internal/features/parcels/ports"
)

const serviceName = "tracking-service"

// TrackingServiceImpl implements ports.TrackingService.
type TrackingServiceImpl struct {
	repo    ports.TrackingRepository
	parcels parcelports.ParcelRepository
}

// NewTrackingService creates a new TrackingServiceImpl.
func NewTrackingService(repo ports.TrackingRepository, parcels parcelports.ParcelRepository) *TrackingServiceImpl {
	return &TrackingServiceImpl{repo: repo, parcels: parcels}
}

// GetByNumber resolves a tracking number. When no tracking record exists yet
// the parcel with that number seeds one, so numbers issued before the
// tracking feed existed still resolve.
func (s *TrackingServiceImpl) GetByNumber(ctx context.Context, trackingNumber string) (*domain.Tracking, error) {
	tracking, err := s.repo.FindByNumber(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	if tracking != nil {
		return tracking, nil
	}

	parcel, err := s.parcels.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, parceldomain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	tracking = domain.FromParcel(parcel)
	if err := s.repo.Insert(ctx, tracking); err != nil {
		// The caller still gets the seeded view even if persisting it fails.
		logger.Get().Warn("failed to persist seeded tracking record",
			zap.String("service", serviceName),
			zap.String("trackingNumber", trackingNumber),
			zap.Error(err))
	}
	return tracking, nil
}

// Active lists shipments currently moving.
func (s *TrackingServiceImpl) Active(ctx context.Context) ([]*domain.Tracking, error) {
	return s.repo.FindActive(ctx)
}

// ByDriver lists the shipments assigned to a driver.
func (s *TrackingServiceImpl) ByDriver(ctx context.Context, driverID string) ([]*domain.Tracking, error) {
	return s.repo.FindByDriver(ctx, driverID)
}

// AddEvent records a movement event against a tracking number.
func (s *TrackingServiceImpl) AddEvent(ctx context.Context, trackingNumber string, status domain.Status, location *domain.EventLocation, description, service string) (*domain.Tracking, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if service == "" {
		service = serviceName
	}

	event := domain.Event{
		Status:      status,
		Location:    location,
		Timestamp:   time.Now().UTC(),
		Description: description,
		Service:     service,
	}
	return s.repo.AddEvent(ctx, trackingNumber, event)
}

// UpdateLocation stores the latest reported position for a shipment.
func (s *TrackingServiceImpl) UpdateLocation(ctx context.Context, trackingNumber string, latitude, longitude float64, address string) (*domain.Tracking, error) {
	location := domain.CurrentLocation{
		Latitude:  latitude,
		Longitude: longitude,
		Address:   address,
		Timestamp: time.Now().UTC(),
	}
	return s.repo.SetLocation(ctx, trackingNumber, location)
}
