package domain

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	consolidationdomain "sparrow-parcel/internal/features/consolidations/domain"
	directorydomain "sparrow-parcel/internal/features/directory/domain"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"
)

// Status represents the lifecycle state of a delivery.
type Status string

const (
	StatusAssigned        Status = "assigned"
	StatusAccepted        Status = "accepted"
	StatusInProgress      Status = "in_progress"
	StatusPickedUp        Status = "picked_up"
	StatusInTransit       Status = "in_transit"
	StatusNearDestination Status = "near_destination"
	StatusDelivered       Status = "delivered"
	StatusFailed          Status = "failed"
	StatusCancelled       Status = "cancelled"
)

// Valid reports whether s is a known delivery status.
func (s Status) Valid() bool {
	switch s {
	case StatusAssigned, StatusAccepted, StatusInProgress, StatusPickedUp, StatusInTransit,
		StatusNearDestination, StatusDelivered, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Priority orders deliveries and scales driver earnings.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ItemType says whether a delivery carries loose parcels or one consolidation.
type ItemType string

const (
	ItemTypeParcel        ItemType = "parcel"
	ItemTypeConsolidation ItemType = "consolidation"
)

// Valid reports whether t is a known delivery item type.
func (t ItemType) Valid() bool {
	return t == ItemTypeParcel || t == ItemTypeConsolidation
}

// Route types derived from the from/to location kinds.
const (
	TypeAddressToWarehouse   = "address_to_warehouse"
	TypeWarehouseToWarehouse = "warehouse_to_warehouse"
	TypeWarehouseToAddress   = "warehouse_to_address"
)

// Location endpoint kinds.
const (
	LocationWarehouse = "warehouse"
	LocationAddress   = "address"
)

var (
	// ErrNotFound is returned when a delivery lookup misses.
	ErrNotFound = errors.New("delivery not found")
	// ErrInvalidStatus is returned for a status outside the enum.
	ErrInvalidStatus = errors.New("invalid delivery status")
	// ErrInvalidRoute is returned for an address to address route.
	ErrInvalidRoute = errors.New("invalid delivery route: deliveries must be address to warehouse, warehouse to warehouse, or warehouse to address")
)

// Location is a delivery endpoint, either a warehouse reference or a raw
// address with coordinates.
type Location struct {
	Type         string              `bson:"type" json:"type"`
	WarehouseID  *primitive.ObjectID `bson:"warehouseId,omitempty" json:"warehouseId,omitempty"`
	Address      string              `bson:"address,omitempty" json:"address,omitempty"`
	Latitude     float64             `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude    float64             `bson:"longitude,omitempty" json:"longitude,omitempty"`
	LocationName string              `bson:"locationName,omitempty" json:"locationName,omitempty"`

	// Warehouse holds the populated warehouse record on reads.
	Warehouse *directorydomain.Warehouse `bson:"-" json:"warehouse,omitempty"`
}

// Validate checks the structural shape of a location. label names the field
// in error messages ("fromLocation" or "toLocation"). Warehouse existence is
// checked separately against the directory.
func (l Location) Validate(label string) error {
	switch l.Type {
	case LocationWarehouse:
		if l.WarehouseID == nil {
			return fmt.Errorf("%s warehouseId is required when type is 'warehouse'", label)
		}
	case LocationAddress:
		if l.Address == "" {
			return fmt.Errorf("%s address is required when type is 'address'", label)
		}
		if l.Latitude == 0 || l.Longitude == 0 {
			return fmt.Errorf("%s latitude and longitude are required when type is 'address'", label)
		}
	default:
		return fmt.Errorf("%s type must be either 'warehouse' or 'address'", label)
	}
	return nil
}

// DetermineType derives the route type from the endpoint kinds. Address to
// address routes are rejected.
func DetermineType(from, to Location) (string, error) {
	switch {
	case from.Type == LocationAddress && to.Type == LocationWarehouse:
		return TypeAddressToWarehouse, nil
	case from.Type == LocationWarehouse && to.Type == LocationWarehouse:
		return TypeWarehouseToWarehouse, nil
	case from.Type == LocationWarehouse && to.Type == LocationAddress:
		return TypeWarehouseToAddress, nil
	default:
		return "", ErrInvalidRoute
	}
}

// GeoPoint is an optional position attached to a status history entry.
type GeoPoint struct {
	Latitude  float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Address   string  `bson:"address,omitempty" json:"address,omitempty"`
}

// StatusHistoryEntry is one row of a delivery's ordered status log.
type StatusHistoryEntry struct {
	Status    Status    `bson:"status" json:"status"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
	Location  *GeoPoint `bson:"location,omitempty" json:"location,omitempty"`
}

// ProofItem is a piece of delivery proof, typically a photo or signature URL.
type ProofItem struct {
	Type string `bson:"type,omitempty" json:"type,omitempty"`
	URL  string `bson:"url,omitempty" json:"url,omitempty"`
}

// Delivery is a driver assignment moving parcels or a consolidation along one
// of the three route types.
type Delivery struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	DeliveryNumber   string               `bson:"deliveryNumber" json:"deliveryNumber"`
	DeliveryItemType ItemType             `bson:"deliveryItemType" json:"deliveryItemType"`
	ParcelIDs        []primitive.ObjectID `bson:"parcels,omitempty" json:"parcelIds,omitempty"`
	ConsolidationID  *primitive.ObjectID  `bson:"consolidation,omitempty" json:"consolidationId,omitempty"`
	AssignedDriver   primitive.ObjectID   `bson:"assignedDriver" json:"assignedDriver"`
	AssignedBy       *primitive.ObjectID  `bson:"assignedBy,omitempty" json:"assignedBy,omitempty"`
	FromLocation     Location             `bson:"fromLocation" json:"fromLocation"`
	ToLocation       Location             `bson:"toLocation" json:"toLocation"`
	DeliveryType     string               `bson:"deliveryType" json:"deliveryType"`
	Status           Status               `bson:"status" json:"status"`
	StatusHistory    []StatusHistoryEntry `bson:"statusHistory" json:"statusHistory"`
	Priority         Priority             `bson:"priority" json:"priority"`

	EstimatedPickupTime   *time.Time `bson:"estimatedPickupTime,omitempty" json:"estimatedPickupTime,omitempty"`
	ActualPickupTime      *time.Time `bson:"actualPickupTime,omitempty" json:"actualPickupTime,omitempty"`
	EstimatedDeliveryTime *time.Time `bson:"estimatedDeliveryTime,omitempty" json:"estimatedDeliveryTime,omitempty"`
	ActualDeliveryTime    *time.Time `bson:"actualDeliveryTime,omitempty" json:"actualDeliveryTime,omitempty"`

	Distance             float64     `bson:"distance,omitempty" json:"distance,omitempty"`
	DeliveryInstructions string      `bson:"deliveryInstructions,omitempty" json:"deliveryInstructions,omitempty"`
	RecipientSignature   string      `bson:"recipientSignature,omitempty" json:"recipientSignature,omitempty"`
	DeliveryProof        []ProofItem `bson:"deliveryProof,omitempty" json:"deliveryProof,omitempty"`
	Notes                string      `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"createdTimestamp" json:"createdTimestamp"`
	UpdatedAt time.Time `bson:"updatedTimestamp" json:"updatedTimestamp"`

	// Populated references, filled in by the repository on reads.
	Parcels       []*parceldomain.Parcel             `bson:"-" json:"parcels,omitempty"`
	Consolidation *consolidationdomain.Consolidation `bson:"-" json:"consolidation,omitempty"`
	Driver        *directorydomain.User              `bson:"-" json:"driver,omitempty"`
	Staff         *directorydomain.User              `bson:"-" json:"staff,omitempty"`
}

const base36Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateDeliveryNumber builds a delivery number from the current time in
// base36 plus a short random suffix. Collisions are not checked.
func GenerateDeliveryNumber() string {
	timestamp := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = base36Chars[rand.Intn(len(base36Chars))]
	}
	return fmt.Sprintf("DEL-%s-%s", timestamp, suffix)
}

// ItemStatuses maps a delivery status to the statuses pushed onto the carried
// parcels and consolidation. ok is false when the transition does not touch
// the items.
func ItemStatuses(status Status, toLocationType string) (parcelStatus parceldomain.Status, consolidationStatus consolidationdomain.Status, ok bool) {
	switch status {
	case StatusPickedUp, StatusInTransit:
		return parceldomain.StatusInTransit, consolidationdomain.StatusInTransit, true
	case StatusDelivered:
		if toLocationType == LocationWarehouse {
			return parceldomain.StatusAtWarehouse, consolidationdomain.StatusDelivered, true
		}
		return parceldomain.StatusDelivered, consolidationdomain.StatusDelivered, true
	}
	return "", "", false
}

// ReadableType renders a route type for human-facing messages, for example
// "warehouse_to_address" becomes "Warehouse To Address".
func ReadableType(deliveryType string) string {
	words := strings.Split(deliveryType, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
