package ports

import (
	"context"
	"time"

	"sparrow-parcel/internal/features/earnings/domain"

	deliverydomain "sparrow-parcel/internal/features/deliveries/domain"
)

// Filter narrows earnings list queries. Zero values are ignored.
type Filter struct {
	Status   domain.Status
	DriverID string
}

// DriverFilter narrows a driver's earnings by status and completion window.
type DriverFilter struct {
	Status    domain.Status
	StartDate *time.Time
	EndDate   *time.Time
}

// Update is a partial field update. Nil fields are left untouched. Derived
// amounts are recomputed by the service before persisting.
type Update struct {
	BaseAmount     *float64
	CommissionRate *float64
	BonusAmount    *float64
	Deductions     *float64
	Status         *domain.Status
	Notes          *string
}

// EarningsRepository is the secondary port for earnings persistence.
// FindByDelivery returns (nil, nil) on a miss.
type EarningsRepository interface {
	Insert(ctx context.Context, earnings *domain.Earnings) error
	Find(ctx context.Context, filter Filter) ([]*domain.Earnings, error)
	FindByID(ctx context.Context, id string) (*domain.Earnings, error)
	FindByDriver(ctx context.Context, driverID string, filter DriverFilter) ([]*domain.Earnings, error)
	FindByDelivery(ctx context.Context, deliveryID string) (*domain.Earnings, error)
	Replace(ctx context.Context, earnings *domain.Earnings) (*domain.Earnings, error)
	SetStatus(ctx context.Context, id string, status domain.Status, notes string, paidAt *time.Time) (*domain.Earnings, error)
	Delete(ctx context.Context, id string) (*domain.Earnings, error)
}

// EarningsService is the primary port for earnings operations.
type EarningsService interface {
	Create(ctx context.Context, earnings *domain.Earnings) (*domain.Earnings, error)
	CreateForDelivery(ctx context.Context, delivery *deliverydomain.Delivery) error
	List(ctx context.Context, filter Filter) ([]*domain.Earnings, error)
	ListByDriver(ctx context.Context, driverID string, filter DriverFilter) ([]*domain.Earnings, error)
	Summary(ctx context.Context, driverID string, startDate, endDate *time.Time) (domain.Summary, error)
	Update(ctx context.Context, id string, update Update) (*domain.Earnings, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status, notes string) (*domain.Earnings, error)
	Delete(ctx context.Context, id string) (*domain.Earnings, error)
}
