package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	deliverydomain "sparrow-parcel/internal/features/deliveries/domain"
	directorydomain "sparrow-parcel/internal/features/directory/domain"
)

// Status represents the payout state of an earnings record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known earnings status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned when an earnings lookup misses.
	ErrNotFound = errors.New("earnings record not found")
	// ErrInvalidStatus is returned for a status outside the enum.
	ErrInvalidStatus = errors.New("invalid earnings status")
)

// Earnings is a driver's payout record for one completed delivery.
// CommissionAmount and TotalEarnings are derived; call Recalculate after
// changing any of the inputs.
type Earnings struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DriverID            primitive.ObjectID `bson:"driver" json:"driverId"`
	DeliveryID          primitive.ObjectID `bson:"delivery" json:"deliveryId"`
	BaseAmount          float64            `bson:"baseAmount" json:"baseAmount"`
	CommissionRate      float64            `bson:"commissionRate" json:"commissionRate"`
	CommissionAmount    float64            `bson:"commissionAmount" json:"commissionAmount"`
	BonusAmount         float64            `bson:"bonusAmount" json:"bonusAmount"`
	Deductions          float64            `bson:"deductions" json:"deductions"`
	TotalEarnings       float64            `bson:"totalEarnings" json:"totalEarnings"`
	Status              Status             `bson:"status" json:"status"`
	DeliveryCompletedAt time.Time          `bson:"deliveryCompletedAt" json:"deliveryCompletedAt"`
	PaidAt              *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	Notes               string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt           time.Time          `bson:"createdTimestamp" json:"createdTimestamp"`
	UpdatedAt           time.Time          `bson:"updatedTimestamp" json:"updatedTimestamp"`

	// Populated references, filled in by the repository on reads.
	Driver   *directorydomain.User    `bson:"-" json:"driver,omitempty"`
	Delivery *deliverydomain.Delivery `bson:"-" json:"delivery,omitempty"`
}

// Recalculate refreshes the derived commission and total from the inputs.
func (e *Earnings) Recalculate() {
	e.CommissionAmount = e.BaseAmount * e.CommissionRate / 100
	e.TotalEarnings = e.CommissionAmount + e.BonusAmount - e.Deductions
}

// Bucket is a per-status count and amount in a summary.
type Bucket struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// SummaryByStatus groups summary buckets by earnings status.
type SummaryByStatus struct {
	Pending   Bucket `json:"pending"`
	Approved  Bucket `json:"approved"`
	Paid      Bucket `json:"paid"`
	Cancelled Bucket `json:"cancelled"`
}

// Summary aggregates a driver's earnings records.
type Summary struct {
	TotalEarnings   float64         `json:"totalEarnings"`
	TotalCommission float64         `json:"totalCommission"`
	TotalBonus      float64         `json:"totalBonus"`
	TotalDeductions float64         `json:"totalDeductions"`
	PendingAmount   float64         `json:"pendingAmount"`
	ApprovedAmount  float64         `json:"approvedAmount"`
	PaidAmount      float64         `json:"paidAmount"`
	DeliveryCount   int             `json:"deliveryCount"`
	ByStatus        SummaryByStatus `json:"byStatus"`
}

// Summarize aggregates the given records into one summary.
func Summarize(records []*Earnings) Summary {
	var summary Summary
	for _, e := range records {
		summary.TotalEarnings += e.TotalEarnings
		summary.TotalCommission += e.CommissionAmount
		summary.TotalBonus += e.BonusAmount
		summary.TotalDeductions += e.Deductions
		summary.DeliveryCount++

		switch e.Status {
		case StatusPending:
			summary.PendingAmount += e.TotalEarnings
			summary.ByStatus.Pending.Count++
			summary.ByStatus.Pending.Amount += e.TotalEarnings
		case StatusApproved:
			summary.ApprovedAmount += e.TotalEarnings
			summary.ByStatus.Approved.Count++
			summary.ByStatus.Approved.Amount += e.TotalEarnings
		case StatusPaid:
			summary.PaidAmount += e.TotalEarnings
			summary.ByStatus.Paid.Count++
			summary.ByStatus.Paid.Amount += e.TotalEarnings
		case StatusCancelled:
			summary.ByStatus.Cancelled.Count++
			summary.ByStatus.Cancelled.Amount += e.TotalEarnings
		}
	}
	return summary
}
