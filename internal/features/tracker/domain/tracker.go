package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	directorydomain "sparrow-parcel/internal/features/directory/domain"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"
)

// Status represents the state recorded by a warehouse scan event. It is a
// superset of the parcel lifecycle with operational states like delayed and
// exception.
type Status string

const (
	StatusCreated             Status = "created"
	StatusReceivedAtWarehouse Status = "received_at_warehouse"
	StatusConsolidated        Status = "consolidated"
	StatusInTransit           Status = "in_transit"
	StatusOutForDelivery      Status = "out_for_delivery"
	StatusDelivered           Status = "delivered"
	StatusDelayed             Status = "delayed"
	StatusException           Status = "exception"
)

var (
	// ErrNotFound is returned when a tracker event lookup misses.
	ErrNotFound = errors.New("tracker event not found")
	// ErrInvalidStatus is returned for a status outside the enum.
	ErrInvalidStatus = errors.New("invalid tracker status")
)

// Valid reports whether s is a known tracker status.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusReceivedAtWarehouse, StatusConsolidated, StatusInTransit,
		StatusOutForDelivery, StatusDelivered, StatusDelayed, StatusException:
		return true
	}
	return false
}

// Event is one operational scan recorded against a parcel.
type Event struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ParcelID primitive.ObjectID `bson:"parcelId" json:"parcelId"`
	Status   Status             `bson:"status" json:"status"`
	Location string             `bson:"location,omitempty" json:"location,omitempty"`
	// Timestamp is when the scan happened, not when the record was written.
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
	// The misspelled field name is what existing documents carry.
	UpdatedBy *primitive.ObjectID `bson:"updateddBy,omitempty" json:"updatedBy,omitempty"`

	// Populated references, filled in by the repository on reads.
	Parcel *parceldomain.Parcel  `bson:"-" json:"parcel,omitempty"`
	User   *directorydomain.User `bson:"-" json:"user,omitempty"`
}
