package ports

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	consolidationdomain "sparrow-parcel/internal/features/consolidations/domain"
	"sparrow-parcel/internal/features/deliveries/domain"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"
)

// Filter narrows delivery list queries. Zero values are ignored.
type Filter struct {
	Status          domain.Status
	DriverID        string
	Priority        domain.Priority
	DeliveryType    string
	ItemType        domain.ItemType
	WarehouseID     string
	ConsolidationID string
}

// Update is a partial field update. Nil fields are left untouched.
type Update struct {
	AssignedDriver        *string
	FromLocation          *domain.Location
	ToLocation            *domain.Location
	Priority              *domain.Priority
	EstimatedPickupTime   *time.Time
	EstimatedDeliveryTime *time.Time
	Distance              *float64
	DeliveryInstructions  *string
	RecipientSignature    *string
	DeliveryProof         *[]domain.ProofItem
	Notes                 *string
}

// StatusUpdate carries a status transition request.
type StatusUpdate struct {
	Status   domain.Status
	Note     string
	Location *domain.GeoPoint
}

// DeliveryRepository is the secondary port for delivery persistence. It also
// owns the cross-collection writes that keep carried parcels and
// consolidations in step with the delivery.
type DeliveryRepository interface {
	Insert(ctx context.Context, delivery *domain.Delivery) error
	Find(ctx context.Context, filter Filter) ([]*domain.Delivery, error)
	FindByID(ctx context.Context, id string) (*domain.Delivery, error)
	FindByNumber(ctx context.Context, deliveryNumber string) (*domain.Delivery, error)
	Update(ctx context.Context, id string, update Update) (*domain.Delivery, error)
	ApplyStatus(ctx context.Context, id string, status domain.Status, entry domain.StatusHistoryEntry, pickupAt, deliveredAt *time.Time) (*domain.Delivery, error)
	SetDriver(ctx context.Context, id string, driverID primitive.ObjectID, entry domain.StatusHistoryEntry) (*domain.Delivery, error)
	Delete(ctx context.Context, id string) (*domain.Delivery, error)

	CountParcels(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	FindConsolidation(ctx context.Context, id primitive.ObjectID) (*consolidationdomain.Consolidation, error)
	AssignParcels(ctx context.Context, ids []primitive.ObjectID, driverID primitive.ObjectID, warehouseID *primitive.ObjectID, status parceldomain.Status, entry parceldomain.StatusHistoryEntry) error
	PushParcelStatus(ctx context.Context, ids []primitive.ObjectID, status parceldomain.Status, entry parceldomain.StatusHistoryEntry) error
	PushConsolidationStatus(ctx context.Context, id primitive.ObjectID, status consolidationdomain.Status, entry consolidationdomain.StatusHistoryEntry) error
}

// EarningsCreator records driver earnings for a completed delivery. The
// deliveries service treats failures as non-fatal.
type EarningsCreator interface {
	CreateForDelivery(ctx context.Context, delivery *domain.Delivery) error
}

// DeliveryService is the primary port for delivery operations.
type DeliveryService interface {
	Create(ctx context.Context, delivery *domain.Delivery) (*domain.Delivery, error)
	List(ctx context.Context, filter Filter) ([]*domain.Delivery, error)
	Get(ctx context.Context, id string) (*domain.Delivery, error)
	GetByNumber(ctx context.Context, deliveryNumber string) (*domain.Delivery, error)
	Update(ctx context.Context, id string, update Update) (*domain.Delivery, error)
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) (*domain.Delivery, error)
	Reassign(ctx context.Context, id, newDriverID string) (*domain.Delivery, error)
	Delete(ctx context.Context, id string) (*domain.Delivery, error)
}
