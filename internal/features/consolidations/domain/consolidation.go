package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	parceldomain "sparrow-parcel/internal/features/parcels/domain"
)

// Status represents the lifecycle state of a consolidation.
type Status string

const (
	StatusPending      Status = "pending"
	StatusConsolidated Status = "consolidated"
	StatusInTransit    Status = "in_transit"
	StatusDelivered    Status = "delivered"
	StatusCancelled    Status = "cancelled"
)

var (
	// ErrNotFound is returned when a consolidation lookup misses.
	ErrNotFound = errors.New("consolidation not found")
	// ErrNoParcels is returned when a consolidation is created without parcels.
	ErrNoParcels = errors.New("at least one parcel is required")
	// ErrInvalidStatus is returned for a status outside the enum.
	ErrInvalidStatus = errors.New("invalid consolidation status")
)

// Valid reports whether s is a known consolidation status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConsolidated, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// StatusHistoryEntry is one row of a consolidation's status log.
type StatusHistoryEntry struct {
	Status    Status    `bson:"status" json:"status"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
}

// Consolidation groups many parcels under one reference code and master
// tracking number.
type Consolidation struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ReferenceCode        string               `bson:"referenceCode" json:"referenceCode"`
	MasterTrackingNumber string               `bson:"masterTrackingNumber" json:"masterTrackingNumber"`
	ParcelIDs            []primitive.ObjectID `bson:"parcels" json:"parcelIds"`
	CreatedBy            primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	WarehouseID          *primitive.ObjectID  `bson:"warehouseId,omitempty" json:"warehouseId,omitempty"`
	Status               Status               `bson:"status" json:"status"`
	StatusHistory        []StatusHistoryEntry `bson:"statusHistory" json:"statusHistory"`
	CreatedAt            time.Time            `bson:"createdTimestamp" json:"createdTimestamp"`
	UpdatedAt            time.Time            `bson:"updatedTimestamp" json:"updatedTimestamp"`

	// Parcels holds the populated member parcels on reads.
	Parcels []*parceldomain.Parcel `bson:"-" json:"parcels,omitempty"`
}

// NewReferenceCode generates a consolidation reference code.
func NewReferenceCode() string {
	return fmt.Sprintf("CON-%s", strings.ToUpper(uuid.NewString()[:8]))
}

// NewMasterTrackingNumber generates a master tracking number for the group.
func NewMasterTrackingNumber() string {
	return fmt.Sprintf("MTN-%s", strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12]))
}
