package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	directorydomain "sparrow-parcel/internal/features/directory/domain"
)

// Status represents the lifecycle state of a parcel.
type Status string

const (
	StatusCreated          Status = "created"
	StatusAtWarehouse      Status = "at_warehouse"
	StatusConsolidated     Status = "consolidated"
	StatusAssignedToDriver Status = "assigned_to_driver"
	StatusInTransit        Status = "in_transit"
	StatusOutForDelivery   Status = "out_for_delivery"
	StatusDelivered        Status = "delivered"
	StatusCancelled        Status = "cancelled"
)

var (
	// ErrNotFound is returned when a parcel lookup misses.
	ErrNotFound = errors.New("parcel not found")
	// ErrInvalidStatus is returned for a status outside the enum.
	ErrInvalidStatus = errors.New("invalid parcel status")
)

// Valid reports whether s is a known parcel status.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusAtWarehouse, StatusConsolidated, StatusAssignedToDriver,
		StatusInTransit, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// StatusHistoryEntry is one row of a parcel's ordered status log.
type StatusHistoryEntry struct {
	Status    Status    `bson:"status" json:"status"`
	Service   string    `bson:"service,omitempty" json:"service,omitempty"`
	Location  string    `bson:"location,omitempty" json:"location,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
}

// Weight is a parcel weight with its unit.
type Weight struct {
	Value float64 `bson:"value" json:"value"`
	Unit  string  `bson:"unit,omitempty" json:"unit,omitempty"`
}

// Party identifies the sender or receiver of a parcel.
type Party struct {
	Name    string `bson:"name,omitempty" json:"name,omitempty"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

// Parcel is a single shippable item tracked independently.
type Parcel struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	TrackingNumber  string               `bson:"trackingNumber" json:"trackingNumber"`
	Status          Status               `bson:"status" json:"status"`
	StatusHistory   []StatusHistoryEntry `bson:"statusHistory" json:"statusHistory"`
	WarehouseID     *primitive.ObjectID  `bson:"warehouseId,omitempty" json:"warehouseId,omitempty"`
	ConsolidationID *primitive.ObjectID  `bson:"consolidationId,omitempty" json:"consolidationId,omitempty"`
	AssignedDriver  *primitive.ObjectID  `bson:"assignedDriver,omitempty" json:"assignedDriver,omitempty"`
	PricingID       *primitive.ObjectID  `bson:"pricingId,omitempty" json:"pricingId,omitempty"`
	Weight          Weight               `bson:"weight" json:"weight"`
	Sender          Party                `bson:"sender,omitempty" json:"sender,omitempty"`
	Receiver        Party                `bson:"receiver,omitempty" json:"receiver,omitempty"`
	CreatedBy       *primitive.ObjectID  `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt       time.Time            `bson:"createdTimestamp" json:"createdTimestamp"`
	UpdatedAt       time.Time            `bson:"updatedTimestamp" json:"updatedTimestamp"`

	// Populated references, filled in by the repository on reads.
	Warehouse *directorydomain.Warehouse `bson:"-" json:"warehouse,omitempty"`
	Driver    *directorydomain.User      `bson:"-" json:"driver,omitempty"`
}
