package ports

import (
	"context"
	"time"

	"sparrow-parcel/internal/features/invoices/domain"
)

// Filter narrows invoice listings. Zero-value fields are ignored.
type Filter struct {
	Status domain.Status
	UserID string
}

// Update carries the mutable invoice fields.
// Nil fields are left untouched.
type Update struct {
	Status     *domain.Status
	DueDate    *time.Time
	Tax        *float64
	ServiceFee *float64
	Discount   *float64
	Notes      *string
}

// InvoiceRepository is the secondary port for invoice persistence.
type InvoiceRepository interface {
	Insert(ctx context.Context, invoice *domain.Invoice) error
	Find(ctx context.Context, filter Filter) ([]*domain.Invoice, error)
	FindByID(ctx context.Context, id string) (*domain.Invoice, error)
	FindByUser(ctx context.Context, userID string) ([]*domain.Invoice, error)
	// FindByPayment returns (nil, nil) when no invoice exists for the payment.
	FindByPayment(ctx context.Context, paymentID string) (*domain.Invoice, error)
	Update(ctx context.Context, id string, update Update) (*domain.Invoice, error)
	Delete(ctx context.Context, id string) (*domain.Invoice, error)
}

// InvoiceService is the primary port for invoice operations.
type InvoiceService interface {
	Create(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error)
	List(ctx context.Context, filter Filter) ([]*domain.Invoice, error)
	Get(ctx context.Context, id string) (*domain.Invoice, error)
	ByUser(ctx context.Context, userID string) ([]*domain.Invoice, error)
	ByStatus(ctx context.Context, status domain.Status) ([]*domain.Invoice, error)
	Update(ctx context.Context, id string, update Update) (*domain.Invoice, error)
	Delete(ctx context.Context, id string) (*domain.Invoice, error)
}
