package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	consolidationdomain "sparrow-parcel/internal/features/consolidations/domain"
	directorydomain "sparrow-parcel/internal/features/directory/domain"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"
)

// Status represents the customer-facing state of a shipment. It mirrors the
// parcel lifecycle so parcel history can seed a tracking record directly.
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
	// ErrNotFound is returned when no tracking record or parcel matches a
	// tracking number.
	ErrNotFound = errors.New("tracking information not found")
	// ErrInvalidStatus is returned for a status outside the enum.
	ErrInvalidStatus = errors.New("invalid tracking status")
)

// Valid reports whether s is a known tracking status.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusAtWarehouse, StatusConsolidated, StatusAssignedToDriver,
		StatusInTransit, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ActiveStatuses are the states shown on live shipment maps.
var ActiveStatuses = []Status{StatusInTransit, StatusOutForDelivery}

// EventLocation is where a tracking event was recorded.
type EventLocation struct {
	Latitude  float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Address   string  `bson:"address,omitempty" json:"address,omitempty"`
}

// CurrentLocation is the last reported position of a shipment.
type CurrentLocation struct {
	Latitude  float64   `bson:"latitude" json:"latitude"`
	Longitude float64   `bson:"longitude" json:"longitude"`
	Address   string    `bson:"address,omitempty" json:"address,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Event is one row of a shipment's public movement log.
type Event struct {
	Status      Status         `bson:"status" json:"status"`
	Location    *EventLocation `bson:"location,omitempty" json:"location,omitempty"`
	Timestamp   time.Time      `bson:"timestamp" json:"timestamp"`
	Description string         `bson:"description,omitempty" json:"description,omitempty"`
	Service     string         `bson:"service,omitempty" json:"service,omitempty"`
}

// Tracking is the customer-facing view of a parcel or consolidation journey,
// keyed by tracking number.
type Tracking struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TrackingNumber    string              `bson:"trackingNumber" json:"trackingNumber"`
	ParcelID          *primitive.ObjectID `bson:"parcelId,omitempty" json:"parcelId,omitempty"`
	ConsolidationID   *primitive.ObjectID `bson:"consolidationId,omitempty" json:"consolidationId,omitempty"`
	CurrentStatus     Status              `bson:"currentStatus" json:"currentStatus"`
	CurrentLocation   *CurrentLocation    `bson:"currentLocation,omitempty" json:"currentLocation,omitempty"`
	EstimatedDelivery *time.Time          `bson:"estimatedDelivery,omitempty" json:"estimatedDelivery,omitempty"`
	ActualDelivery    *time.Time          `bson:"actualDelivery,omitempty" json:"actualDelivery,omitempty"`
	AssignedDriver    *primitive.ObjectID `bson:"assignedDriver,omitempty" json:"assignedDriver,omitempty"`
	Events            []Event             `bson:"events" json:"events"`
	Sender            parceldomain.Party  `bson:"sender,omitempty" json:"sender,omitempty"`
	Receiver          parceldomain.Party  `bson:"receiver,omitempty" json:"receiver,omitempty"`
	CreatedAt         time.Time           `bson:"createdTimestamp" json:"createdTimestamp"`
	UpdatedAt         time.Time           `bson:"updatedTimestamp" json:"updatedTimestamp"`

	// Populated references, filled in by the repository on reads.
	Parcel        *parceldomain.Parcel               `bson:"-" json:"parcel,omitempty"`
	Consolidation *consolidationdomain.Consolidation `bson:"-" json:"consolidation,omitempty"`
	Driver        *directorydomain.User              `bson:"-" json:"driver,omitempty"`
}

// FromParcel seeds a tracking record from a parcel whose tracking number has
// never been queried before. The parcel's status history becomes the event
// log.
func FromParcel(parcel *parceldomain.Parcel) *Tracking {
	tracking := &Tracking{
		TrackingNumber:  parcel.TrackingNumber,
		ParcelID:        &parcel.ID,
		ConsolidationID: parcel.ConsolidationID,
		CurrentStatus:   Status(parcel.Status),
		AssignedDriver:  parcel.AssignedDriver,
		Sender:          parcel.Sender,
		Receiver:        parcel.Receiver,
	}
	for _, entry := range parcel.StatusHistory {
		event := Event{
			Status:      Status(entry.Status),
			Timestamp:   entry.Timestamp,
			Description: entry.Note,
			Service:     entry.Service,
		}
		if entry.Location != "" {
			event.Location = &EventLocation{Address: entry.Location}
		}
		tracking.Events = append(tracking.Events, event)
	}
	return tracking
}
