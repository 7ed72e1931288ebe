package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryTypeDefault is the catch-all settings row used when no row matches
// a delivery's route type.
const DeliveryTypeDefault = "default"

// FallbackCommissionRate is the hardcoded rate applied when neither a typed
// row nor the default row exists.
const FallbackCommissionRate = 10.0

var (
	// ErrNotFound is returned when no settings row matches.
	ErrNotFound = errors.New("commission settings not found")
	// ErrDefaultUndeletable is returned on attempts to delete the default row.
	ErrDefaultUndeletable = errors.New("cannot delete default commission settings")
	// ErrInvalidDeliveryType is returned for types outside the enum.
	ErrInvalidDeliveryType = errors.New("invalid delivery type")
)

// ValidDeliveryType reports whether t is a seedable settings key.
func ValidDeliveryType(t string) bool {
	switch t {
	case DeliveryTypeDefault, "address_to_warehouse", "warehouse_to_warehouse", "warehouse_to_address":
		return true
	}
	return false
}

// Settings is the per-route-type commission configuration.
type Settings struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	DeliveryType        string              `bson:"deliveryType" json:"deliveryType"`
	CommissionRate      float64             `bson:"commissionRate" json:"commissionRate"`
	BaseAmount          float64             `bson:"baseAmount" json:"baseAmount"`
	UrgentDeliveryBonus float64             `bson:"urgentDeliveryBonus,omitempty" json:"urgentDeliveryBonus,omitempty"`
	Description         string              `bson:"description,omitempty" json:"description,omitempty"`
	IsActive            bool                `bson:"isActive" json:"isActive"`
	CreatedBy           *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedBy           *primitive.ObjectID `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt           time.Time           `bson:"createdTimestamp" json:"createdTimestamp"`
	UpdatedAt           time.Time           `bson:"updatedTimestamp" json:"updatedTimestamp"`
}

// DefaultSettings are the canonical rows seeded by the initialize operation.
func DefaultSettings() []Settings {
	return []Settings{
		{
			DeliveryType:   DeliveryTypeDefault,
			CommissionRate: 10,
			BaseAmount:     50,
			Description:    "Default commission for all delivery types",
			IsActive:       true,
		},
		{
			DeliveryType:   "address_to_warehouse",
			CommissionRate: 12,
			BaseAmount:     60,
			Description:    "Commission for address to warehouse deliveries",
			IsActive:       true,
		},
		{
			DeliveryType:   "warehouse_to_warehouse",
			CommissionRate: 8,
			BaseAmount:     40,
			Description:    "Commission for warehouse to warehouse transfers",
			IsActive:       true,
		},
		{
			DeliveryType:   "warehouse_to_address",
			CommissionRate: 15,
			BaseAmount:     70,
			Description:    "Commission for warehouse to address deliveries",
			IsActive:       true,
		},
	}
}
