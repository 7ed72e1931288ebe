package ports

import (
	"context"

	"sparrow-parcel/internal/features/tracking/domain"
)

// TrackingRepository is the secondary port for tracking persistence.
type TrackingRepository interface {
	Insert(ctx context.Context, tracking *domain.Tracking) error
	// FindByNumber returns (nil, nil) when no record exists for the number.
	FindByNumber(ctx context.Context, trackingNumber string) (*domain.Tracking, error)
	// FindActive lists shipments currently moving, most recently updated first.
	FindActive(ctx context.Context) ([]*domain.Tracking, error)
	FindByDriver(ctx context.Context, driverID string) ([]*domain.Tracking, error)
	// AddEvent appends an event and promotes its status and location to the
	// record's current state.
	AddEvent(ctx context.Context, trackingNumber string, event domain.Event) (*domain.Tracking, error)
	SetLocation(ctx context.Context, trackingNumber string, location domain.CurrentLocation) (*domain.Tracking, error)
}

// TrackingService is the primary port for shipment tracking operations.
type TrackingService interface {
	// GetByNumber resolves a tracking number, seeding the record from the
	// parcel on first lookup.
	GetByNumber(ctx context.Context, trackingNumber string) (*domain.Tracking, error)
	Active(ctx context.Context) ([]*domain.Tracking, error)
	ByDriver(ctx context.Context, driverID string) ([]*domain.Tracking, error)
	AddEvent(ctx context.Context, trackingNumber string, status domain.Status, location *domain.EventLocation, description, service string) (*domain.Tracking, error)
	UpdateLocation(ctx context.Context, trackingNumber string, latitude, longitude float64, address string) (*domain.Tracking, error)
}
