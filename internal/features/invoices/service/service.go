package service

import (
	"context"
	"fmt"
	"time"

	"sparrow-parcel/internal/core/notify"
	"sparrow-parcel/internal/features/invoices/domain"
	"sparrow-parcel/internal/features/invoices/ports"
)

// InvoiceServiceImpl implements ports.InvoiceService.
type InvoiceServiceImpl struct {
	repo     ports.InvoiceRepository
	notifier notify.Sender
}

// NewInvoiceService creates a new InvoiceServiceImpl.
func NewInvoiceService(repo ports.InvoiceRepository, notifier notify.Sender) *InvoiceServiceImpl {
	return &InvoiceServiceImpl{repo: repo, notifier: notifier}
}

// Create stores a new invoice, deriving totals from the line items and
// notifying the billed user.
func (s *InvoiceServiceImpl) Create(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	if invoice.InvoiceNumber == "" {
		invoice.InvoiceNumber = domain.NewInvoiceNumber()
	}
	if invoice.Status == "" {
		invoice.Status = domain.StatusIssued
	}
	if !invoice.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if invoice.IssueDate.IsZero() {
		invoice.IssueDate = time.Now().UTC()
	}
	invoice.ComputeTotals()

	if err := s.repo.Insert(ctx, invoice); err != nil {
		return nil, err
	}

	s.notifier.Send(notify.Notification{
		UserID:     invoice.UserID.Hex(),
		Type:       "invoice_update",
		Title:      "New Invoice Created",
		Message:    fmt.Sprintf("Invoice %s has been created.", invoice.InvoiceNumber),
		EntityType: "Invoice",
		EntityID:   invoice.ID.Hex(),
		Channels:   []string{notify.ChannelInApp},
	})

	return invoice, nil
}

// List returns invoices matching the filter.
func (s *InvoiceServiceImpl) List(ctx context.Context, filter ports.Filter) ([]*domain.Invoice, error) {
	return s.repo.Find(ctx, filter)
}

// Get returns one invoice by ID.
func (s *InvoiceServiceImpl) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	return s.repo.FindByID(ctx, id)
}

// ByUser returns a user's invoices.
func (s *InvoiceServiceImpl) ByUser(ctx context.Context, userID string) ([]*domain.Invoice, error) {
	return s.repo.FindByUser(ctx, userID)
}

// ByStatus returns all invoices in the given status.
func (s *InvoiceServiceImpl) ByStatus(ctx context.Context, status domain.Status) ([]*domain.Invoice, error) {
	return s.repo.Find(ctx, ports.Filter{Status: status})
}

// Update edits an invoice, notifying the user when the status changes.
func (s *InvoiceServiceImpl) Update(ctx context.Context, id string, update ports.Update) (*domain.Invoice, error) {
	if update.Status != nil && !update.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	invoice, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	if update.Status != nil {
		s.notifier.Send(notify.Notification{
			UserID:     invoice.UserID.Hex(),
			Type:       "invoice_update",
			Title:      "Invoice Status Updated",
			Message:    fmt.Sprintf("Invoice %s status changed to %s", invoice.InvoiceNumber, *update.Status),
			EntityType: "Invoice",
			EntityID:   invoice.ID.Hex(),
			Channels:   []string{notify.ChannelInApp},
		})
	}

	return invoice, nil
}

// Delete removes an invoice.
func (s *InvoiceServiceImpl) Delete(ctx context.Context, id string) (*domain.Invoice, error) {
	return s.repo.Delete(ctx, id)
}
