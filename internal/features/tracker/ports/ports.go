package ports

import (
	"context"
	"time"

	"sparrow-parcel/internal/features/tracker/domain"
)

// Filter narrows tracker event listings. Zero-value fields are ignored.
type Filter struct {
	ParcelID string
	Status   domain.Status
	Location string
}

// Update carries the mutable tracker event fields.
// Nil fields are left untouched.
type Update struct {
	Status    *domain.Status
	Location  *string
	Note      *string
	Timestamp *time.Time
}

// TrackerRepository is the secondary port for tracker event persistence.
type TrackerRepository interface {
	Insert(ctx context.Context, event *domain.Event) error
	Find(ctx context.Context, filter Filter) ([]*domain.Event, error)
	FindByID(ctx context.Context, id string) (*domain.Event, error)
	FindByParcel(ctx context.Context, parcelID string) ([]*domain.Event, error)
	// FindLatestByParcel returns the most recent event for a parcel.
	FindLatestByParcel(ctx context.Context, parcelID string) (*domain.Event, error)
	Update(ctx context.Context, id string, update Update) (*domain.Event, error)
	Delete(ctx context.Context, id string) (*domain.Event, error)
}

// TrackerService is the primary port for tracker event operations.
type TrackerService interface {
	// Create records a scan and pushes its status onto the parcel.
	Create(ctx context.Context, event *domain.Event) (*domain.Event, error)
	List(ctx context.Context, filter Filter) ([]*domain.Event, error)
	Get(ctx context.Context, id string) (*domain.Event, error)
	ByParcel(ctx context.Context, parcelID string) ([]*domain.Event, error)
	LatestByParcel(ctx context.Context, parcelID string) (*domain.Event, error)
	ByStatus(ctx context.Context, status domain.Status) ([]*domain.Event, error)
	Update(ctx context.Context, id string, update Update) (*domain.Event, error)
	Delete(ctx context.Context, id string) (*domain.Event, error)
}
