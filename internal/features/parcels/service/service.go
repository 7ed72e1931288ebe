package service

import (
	"context"
	"fmt"
	"time"

	"sparrow-parcel/internal/features/parcels/domain"
	"sparrow-parcel/internal/features/parcels/ports"
)

const serviceName = "parcel-service"

// ParcelServiceImpl implements ports.ParcelService.
type ParcelServiceImpl struct {
	repo ports.ParcelRepository
}

// NewParcelService creates a new ParcelServiceImpl.
func NewParcelService(repo ports.ParcelRepository) *ParcelServiceImpl {
	return &ParcelServiceImpl{repo: repo}
}

// Create stores a new parcel with its initial status history entry.
func (s *ParcelServiceImpl) Create(ctx context.Context, parcel *domain.Parcel) (*domain.Parcel, error) {
	if parcel.Status == "" {
		parcel.Status = domain.StatusCreated
	}
	if !parcel.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	parcel.StatusHistory = append(parcel.StatusHistory, domain.StatusHistoryEntry{
		Status:    parcel.Status,
		Service:   serviceName,
		Location:  "System",
		Timestamp: time.Now().UTC(),
		Note:      "Parcel created",
	})

	if err := s.repo.Insert(ctx, parcel); err != nil {
		return nil, fmt.Errorf("service: failed to create parcel: %w", err)
	}
	return parcel, nil
}

// List returns parcels matching the filter.
func (s *ParcelServiceImpl) List(ctx context.Context, filter ports.Filter) ([]*domain.Parcel, error) {
	return s.repo.Find(ctx, filter)
}

// Get returns one parcel by ID.
func (s *ParcelServiceImpl) Get(ctx context.Context, id string) (*domain.Parcel, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByTrackingNumber returns one parcel by its tracking number.
func (s *ParcelServiceImpl) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Parcel, error) {
	return s.repo.FindByTrackingNumber(ctx, trackingNumber)
}

// Update applies a partial field update.
func (s *ParcelServiceImpl) Update(ctx context.Context, id string, update ports.Update) (*domain.Parcel, error) {
	return s.repo.Update(ctx, id, update)
}

// UpdateStatus sets a new status and appends it to the history log.
func (s *ParcelServiceImpl) UpdateStatus(ctx context.Context, id string, status domain.Status, service, location, note string) (*domain.Parcel, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if service == "" {
		service = serviceName
	}

	entry := domain.StatusHistoryEntry{
		Status:    status,
		Service:   service,
		Location:  location,
		Timestamp: time.Now().UTC(),
		Note:      note,
	}
	return s.repo.SetStatus(ctx, id, status, entry)
}

// AssignDriver assigns a driver and marks the parcel assigned_to_driver.
func (s *ParcelServiceImpl) AssignDriver(ctx context.Context, id, driverID string) (*domain.Parcel, error) {
	entry := domain.StatusHistoryEntry{
		Status:    domain.StatusAssignedToDriver,
		Service:   serviceName,
		Timestamp: time.Now().UTC(),
		Note:      "Driver assigned",
	}
	return s.repo.AssignDriver(ctx, id, driverID, entry)
}

// Delete removes a parcel.
func (s *ParcelServiceImpl) Delete(ctx context.Context, id string) (*domain.Parcel, error) {
	return s.repo.Delete(ctx, id)
}
