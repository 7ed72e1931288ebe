package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	consolidationdomain "sparrow-parcel/internal/features/consolidations/domain"
	directorydomain "sparrow-parcel/internal/features/directory/domain"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"
)

// Status represents the billing state of an invoice.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusIssued    Status = "issued"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

var (
	// ErrNotFound is returned when an invoice lookup misses.
	ErrNotFound = errors.New("invoice not found")
	// ErrInvalidStatus is returned for a status outside the enum.
	ErrInvalidStatus = errors.New("invalid invoice status")
)

// Valid reports whether s is a known invoice status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusIssued, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// Item is one billed line on an invoice.
type Item struct {
	Description string  `bson:"description" json:"description"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	UnitPrice   float64 `bson:"unitPrice" json:"unitPrice"`
	Total       float64 `bson:"total" json:"total"`
}

// Invoice bills a customer for the shipping of one or more parcels.
type Invoice struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	InvoiceNumber   string               `bson:"invoiceNumber" json:"invoiceNumber"`
	UserID          primitive.ObjectID   `bson:"user" json:"user"`
	PaymentID       primitive.ObjectID   `bson:"payment" json:"payment"`
	ParcelIDs       []primitive.ObjectID `bson:"parcels" json:"parcels"`
	ConsolidationID *primitive.ObjectID  `bson:"consolidatedShipmentId,omitempty" json:"consolidatedShipmentId,omitempty"`
	Items           []Item               `bson:"items" json:"items"`
	Subtotal        float64              `bson:"subtotal" json:"subtotal"`
	Tax             float64              `bson:"tax" json:"tax"`
	ServiceFee      float64              `bson:"serviceFee" json:"serviceFee"`
	Discount        float64              `bson:"discount" json:"discount"`
	TotalAmount     float64              `bson:"totalAmount" json:"totalAmount"`
	IssueDate       time.Time            `bson:"issueDate" json:"issueDate"`
	DueDate         *time.Time           `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	Status          Status               `bson:"status" json:"status"`
	Notes           string               `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`

	// Populated references, filled in by the repository on reads.
	User          *directorydomain.User              `bson:"-" json:"userDetail,omitempty"`
	Parcels       []*parceldomain.Parcel             `bson:"-" json:"parcelDetails,omitempty"`
	Consolidation *consolidationdomain.Consolidation `bson:"-" json:"consolidation,omitempty"`
}

// NewInvoiceNumber generates a unique invoice number.
func NewInvoiceNumber() string {
	return fmt.Sprintf("INV-%s", strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10]))
}

// ComputeTotals derives the subtotal and total from the line items. Amounts
// the caller already set are kept.
func (i *Invoice) ComputeTotals() {
	if i.Subtotal == 0 {
		for _, item := range i.Items {
			i.Subtotal += item.Total
		}
	}
	if i.TotalAmount == 0 {
		i.TotalAmount = i.Subtotal + i.Tax + i.ServiceFee - i.Discount
	}
}
