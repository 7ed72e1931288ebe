package ports

import (
	"context"

	"sparrow-parcel/internal/features/payments/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Filter narrows payment listings. Zero-value fields are ignored.
type Filter struct {
	Status domain.Status
	UserID string
}

// Update carries the mutable payment fields.
// Nil fields are left untouched.
type Update struct {
	Amount *float64
	Method *domain.Method
	Status *domain.Status
	Notes  *string
}

// PaymentRepository is the secondary port for payment persistence.
type PaymentRepository interface {
	Insert(ctx context.Context, payment *domain.Payment) error
	Find(ctx context.Context, filter Filter) ([]*domain.Payment, error)
	FindByID(ctx context.Context, id string) (*domain.Payment, error)
	FindByUser(ctx context.Context, userID string) ([]*domain.Payment, error)
	Update(ctx context.Context, id string, update Update) (*domain.Payment, error)
	// SetInvoice links the auto-generated invoice back to the payment.
	SetInvoice(ctx context.Context, id string, invoiceID primitive.ObjectID) (*domain.Payment, error)
	Delete(ctx context.Context, id string) (*domain.Payment, error)
}

// PaymentService is the primary port for payment operations.
type PaymentService interface {
	Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	List(ctx context.Context, filter Filter) ([]*domain.Payment, error)
	Get(ctx context.Context, id string) (*domain.Payment, error)
	ByUser(ctx context.Context, userID string) ([]*domain.Payment, error)
	ByStatus(ctx context.Context, status domain.Status) ([]*domain.Payment, error)
	// Update edits a payment; the transition into successful issues an
	// invoice and links it back.
	Update(ctx context.Context, id string, update Update) (*domain.Payment, error)
	Delete(ctx context.Context, id string) (*domain.Payment, error)
}
