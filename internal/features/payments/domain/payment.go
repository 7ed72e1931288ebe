package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	consolidationdomain "sparrow-parcel/internal/features/consolidations/domain"
	directorydomain "sparrow-parcel/internal/features/directory/domain"
	invoicedomain "sparrow-parcel/internal/features/invoices/domain"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"
)

// Method is how a payment was made.
type Method string

const (
	MethodCreditCard   Method = "credit_card"
	MethodCash         Method = "cash"
	MethodBankTransfer Method = "bank_transfer"
)

// Status represents the processing state of a payment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

var (
	// ErrNotFound is returned when a payment lookup misses.
	ErrNotFound = errors.New("payment not found")
	// ErrInvalidMethod is returned for a payment method outside the enum.
	ErrInvalidMethod = errors.New("invalid payment method")
	// ErrInvalidStatus is returned for a status outside the enum.
	ErrInvalidStatus = errors.New("invalid payment status")
)

// Valid reports whether m is a known payment method.
func (m Method) Valid() bool {
	switch m {
	case MethodCreditCard, MethodCash, MethodBankTransfer:
		return true
	}
	return false
}

// Valid reports whether s is a known payment status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusSuccessful, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// Payment is a customer payment covering one or more parcels.
type Payment struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID   `bson:"user" json:"user"`
	ParcelIDs       []primitive.ObjectID `bson:"parcels" json:"parcels"`
	Amount          float64              `bson:"amount" json:"amount"`
	Method          Method               `bson:"paymentMethod" json:"paymentMethod"`
	Status          Status               `bson:"paymentStatus" json:"paymentStatus"`
	ConsolidationID *primitive.ObjectID  `bson:"consolidatedShipmentId,omitempty" json:"consolidatedShipmentId,omitempty"`
	InvoiceID       *primitive.ObjectID  `bson:"invoice,omitempty" json:"invoice,omitempty"`
	Notes           string               `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`

	// Populated references, filled in by the repository on reads.
	User          *directorydomain.User              `bson:"-" json:"userDetail,omitempty"`
	Parcels       []*parceldomain.Parcel             `bson:"-" json:"parcelDetails,omitempty"`
	Consolidation *consolidationdomain.Consolidation `bson:"-" json:"consolidation,omitempty"`
	Invoice       *invoicedomain.Invoice             `bson:"-" json:"invoiceDetail,omitempty"`
}
