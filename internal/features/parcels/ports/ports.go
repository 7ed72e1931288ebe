package ports

import (
	"context"

	"sparrow-parcel/internal/features/parcels/domain"
)

// Filter narrows parcel listings. Zero-value fields are ignored.
type Filter struct {
	Status      domain.Status
	WarehouseID string
	DriverID    string
	PricingID   string
}

// Update carries the mutable parcel fields for a full update.
// Nil fields are left untouched.
type Update struct {
	TrackingNumber *string
	Weight         *domain.Weight
	Sender         *domain.Party
	Receiver       *domain.Party
	WarehouseID    *string
	PricingID      *string
}

// ParcelRepository is the secondary port for parcel persistence.
type ParcelRepository interface {
	Insert(ctx context.Context, parcel *domain.Parcel) error
	Find(ctx context.Context, filter Filter) ([]*domain.Parcel, error)
	FindByID(ctx context.Context, id string) (*domain.Parcel, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Parcel, error)
	Update(ctx context.Context, id string, update Update) (*domain.Parcel, error)
	SetStatus(ctx context.Context, id string, status domain.Status, entry domain.StatusHistoryEntry) (*domain.Parcel, error)
	AssignDriver(ctx context.Context, id, driverID string, entry domain.StatusHistoryEntry) (*domain.Parcel, error)
	Delete(ctx context.Context, id string) (*domain.Parcel, error)
}

// ParcelService is the primary port for parcel operations.
type ParcelService interface {
	Create(ctx context.Context, parcel *domain.Parcel) (*domain.Parcel, error)
	List(ctx context.Context, filter Filter) ([]*domain.Parcel, error)
	Get(ctx context.Context, id string) (*domain.Parcel, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Parcel, error)
	Update(ctx context.Context, id string, update Update) (*domain.Parcel, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status, service, location, note string) (*domain.Parcel, error)
	AssignDriver(ctx context.Context, id, driverID string) (*domain.Parcel, error)
	Delete(ctx context.Context, id string) (*domain.Parcel, error)
}
