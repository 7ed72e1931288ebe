package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sparrow-parcel/internal/core/logger"
	"sparrow-parcel/internal/core/notify"
	"sparrow-parcel/internal/features/payments/domain"
	"sparrow-parcel/internal/features/payments/ports"

	invoicedomain "sparrow-parcel/internal/features/invoices/domain"
	invoiceports "sparrow-parcel/internal/features/invoices/ports"
)

const serviceName = "payment-service"

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	repo     ports.PaymentRepository
	invoices invoiceports.InvoiceRepository
	notifier notify.Sender
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(repo ports.PaymentRepository, invoices invoiceports.InvoiceRepository, notifier notify.Sender) *PaymentServiceImpl {
	return &PaymentServiceImpl{repo: repo, invoices: invoices, notifier: notifier}
}

// Create stores a new payment and notifies the paying user.
func (s *PaymentServiceImpl) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	if !payment.Method.Valid() {
		return nil, domain.ErrInvalidMethod
	}
	if payment.Status == "" {
		payment.Status = domain.StatusPending
	}
	if !payment.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	if err := s.repo.Insert(ctx, payment); err != nil {
		return nil, err
	}

	s.notifier.Send(notify.Notification{
		UserID:     payment.UserID.Hex(),
		Type:       "payment_update",
		Title:      "Payment Created",
		Message:    fmt.Sprintf("A new payment of $%.2f has been created.", payment.Amount),
		EntityType: "Payment",
		EntityID:   payment.ID.Hex(),
		Channels:   []string{notify.ChannelInApp},
	})

	return payment, nil
}

// List returns payments matching the filter.
func (s *PaymentServiceImpl) List(ctx context.Context, filter ports.Filter) ([]*domain.Payment, error) {
	return s.repo.Find(ctx, filter)
}

// Get returns one payment by ID.
func (s *PaymentServiceImpl) Get(ctx context.Context, id string) (*domain.Payment, error) {
	return s.repo.FindByID(ctx, id)
}

// ByUser returns a user's payments.
func (s *PaymentServiceImpl) ByUser(ctx context.Context, userID string) ([]*domain.Payment, error) {
	return s.repo.FindByUser(ctx, userID)
}

// ByStatus returns all payments in the given status.
func (s *PaymentServiceImpl) ByStatus(ctx context.Context, status domain.Status) ([]*domain.Payment, error) {
	return s.repo.Find(ctx, ports.Filter{Status: status})
}

// Update edits a payment. The transition into successful auto-issues a paid
// invoice, links it back to the payment and notifies the user.
func (s *PaymentServiceImpl) Update(ctx context.Context, id string, update ports.Update) (*domain.Payment, error) {
	if update.Method != nil && !update.Method.Valid() {
		return nil, domain.ErrInvalidMethod
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := current.Status

	payment, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	if oldStatus != domain.StatusSuccessful && payment.Status == domain.StatusSuccessful {
		invoice, err := s.issueInvoice(ctx, payment)
		if err != nil {
			return nil, err
		}

		payment, err = s.repo.SetInvoice(ctx, id, invoice.ID)
		if err != nil {
			return nil, err
		}

		s.notifier.Send(notify.Notification{
			UserID:     payment.UserID.Hex(),
			Type:       "payment_update",
			Title:      "Payment Successful",
			Message:    fmt.Sprintf("Your payment of $%.2f was successful. Invoice %s generated.", payment.Amount, invoice.InvoiceNumber),
			EntityType: "Payment",
			EntityID:   payment.ID.Hex(),
			Channels:   []string{notify.ChannelInApp, notify.ChannelEmail},
		})
	}

	return payment, nil
}

// Delete removes a payment.
func (s *PaymentServiceImpl) Delete(ctx context.Context, id string) (*domain.Payment, error) {
	return s.repo.Delete(ctx, id)
}

func (s *PaymentServiceImpl) issueInvoice(ctx context.Context, payment *domain.Payment) (*invoicedomain.Invoice, error) {
	item := invoicedomain.Item{
		Description: "Parcel Consolidation & Shipping",
		Quantity:    len(payment.ParcelIDs),
		UnitPrice:   payment.Amount,
		Total:       payment.Amount,
	}
	if len(payment.ParcelIDs) > 0 {
		item.UnitPrice = payment.Amount / float64(len(payment.ParcelIDs))
	}

	invoice := &invoicedomain.Invoice{
		InvoiceNumber:   invoicedomain.NewInvoiceNumber(),
		UserID:          payment.UserID,
		PaymentID:       payment.ID,
		ParcelIDs:       payment.ParcelIDs,
		ConsolidationID: payment.ConsolidationID,
		Items:           []invoicedomain.Item{item},
		Subtotal:        payment.Amount,
		TotalAmount:     payment.Amount,
		IssueDate:       time.Now().UTC(),
		Status:          invoicedomain.StatusPaid,
	}

	if err := s.invoices.Insert(ctx, invoice); err != nil {
		return nil, err
	}

	logger.Get().Info("invoice issued for successful payment",
		zap.String("service", serviceName),
		zap.String("paymentId", payment.ID.Hex()),
		zap.String("invoiceNumber", invoice.InvoiceNumber))
	return invoice, nil
}
