package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sparrow-parcel/internal/core/notify"
	"sparrow-parcel/internal/features/payments/domain"
	"sparrow-parcel/internal/features/payments/ports"

	invoicedomain "sparrow-parcel/internal/features/invoices/domain"
	invoiceports "sparrow-parcel/internal/features/invoices/ports"
)

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Insert(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Find(ctx context.Context, filter ports.Filter) ([]*domain.Payment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Payment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Update(ctx context.Context, id string, update ports.Update) (*domain.Payment, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SetInvoice(ctx context.Context, id string, invoiceID primitive.ObjectID) (*domain.Payment, error) {
	args := m.Called(ctx, id, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Insert(ctx context.Context, invoice *invoicedomain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Find(ctx context.Context, filter invoiceports.Filter) ([]*invoicedomain.Invoice, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*invoicedomain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicedomain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByUser(ctx context.Context, userID string) ([]*invoicedomain.Invoice, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*invoicedomain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByPayment(ctx context.Context, paymentID string) (*invoicedomain.Invoice, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicedomain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, id string, update invoiceports.Update) (*invoicedomain.Invoice, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicedomain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicedomain.Invoice), args.Error(1)
}

type recordingNotifier struct {
	sent []notify.Notification
}

func (r *recordingNotifier) Send(n notify.Notification) {
	r.sent = append(r.sent, n)
}

type fixture struct {
	repo     *MockPaymentRepository
	invoices *MockInvoiceRepository
	notifier *recordingNotifier
	service  *PaymentServiceImpl
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockPaymentRepository),
		invoices: new(MockInvoiceRepository),
		notifier: &recordingNotifier{},
	}
	f.service = NewPaymentService(f.repo, f.invoices, f.notifier)
	return f
}

func pendingPayment() *domain.Payment {
	return &domain.Payment{
		ID:        primitive.NewObjectID(),
		UserID:    primitive.NewObjectID(),
		ParcelIDs: []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()},
		Amount:    120,
		Method:    domain.MethodCreditCard,
		Status:    domain.StatusPending,
	}
}

func TestCreate_DefaultsToPendingAndNotifies(t *testing.T) {
	f := newFixture()

	payment := &domain.Payment{
		ID:     primitive.NewObjectID(),
		UserID: primitive.NewObjectID(),
		Amount: 45.5,
		Method: domain.MethodCash,
	}
	f.repo.On("Insert", mock.Anything, payment).Return(nil)

	created, err := f.service.Create(context.Background(), payment)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, created.Status)
	require.Len(t, f.notifier.sent, 1)
	n := f.notifier.sent[0]
	assert.Equal(t, "payment_update", n.Type)
	assert.Equal(t, "Payment Created", n.Title)
	assert.Contains(t, n.Message, "$45.50")
	assert.Equal(t, []string{notify.ChannelInApp}, n.Channels)
	f.repo.AssertExpectations(t)
}

func TestCreate_RejectsUnknownMethod(t *testing.T) {
	f := newFixture()

	payment := pendingPayment()
	payment.Method = "barter"

	_, err := f.service.Create(context.Background(), payment)

	assert.ErrorIs(t, err, domain.ErrInvalidMethod)
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.sent)
}

func TestUpdate_SuccessfulTransitionIssuesInvoice(t *testing.T) {
	f := newFixture()

	payment := pendingPayment()
	id := payment.ID.Hex()
	status := domain.StatusSuccessful

	updated := *payment
	updated.Status = domain.StatusSuccessful

	var issued *invoicedomain.Invoice
	f.repo.On("FindByID", mock.Anything, id).Return(payment, nil)
	f.repo.On("Update", mock.Anything, id, ports.Update{Status: &status}).Return(&updated, nil)
	f.invoices.On("Insert", mock.Anything, mock.MatchedBy(func(inv *invoicedomain.Invoice) bool {
		issued = inv
		return inv.PaymentID == payment.ID &&
			inv.Status == invoicedomain.StatusPaid &&
			inv.TotalAmount == 120 &&
			len(inv.Items) == 1 &&
			inv.Items[0].Quantity == 2 &&
			inv.Items[0].UnitPrice == 60
	})).Return(nil)
	f.repo.On("SetInvoice", mock.Anything, id, mock.AnythingOfType("primitive.ObjectID")).Return(&updated, nil)

	result, err := f.service.Update(context.Background(), id, ports.Update{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccessful, result.Status)
	require.NotNil(t, issued)
	assert.NotEmpty(t, issued.InvoiceNumber)
	require.Len(t, f.notifier.sent, 1)
	n := f.notifier.sent[0]
	assert.Equal(t, "Payment Successful", n.Title)
	assert.Contains(t, n.Message, issued.InvoiceNumber)
	assert.Equal(t, []string{notify.ChannelInApp, notify.ChannelEmail}, n.Channels)
	f.repo.AssertExpectations(t)
	f.invoices.AssertExpectations(t)
}

func TestUpdate_AlreadySuccessfulSkipsInvoice(t *testing.T) {
	f := newFixture()

	payment := pendingPayment()
	payment.Status = domain.StatusSuccessful
	id := payment.ID.Hex()
	notes := "duplicate card charge reversed"

	f.repo.On("FindByID", mock.Anything, id).Return(payment, nil)
	f.repo.On("Update", mock.Anything, id, mock.Anything).Return(payment, nil)

	_, err := f.service.Update(context.Background(), id, ports.Update{Notes: &notes})

	require.NoError(t, err)
	f.invoices.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "SetInvoice", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.sent)
}

func TestUpdate_FailedTransitionSkipsInvoice(t *testing.T) {
	f := newFixture()

	payment := pendingPayment()
	id := payment.ID.Hex()
	status := domain.StatusFailed

	updated := *payment
	updated.Status = domain.StatusFailed

	f.repo.On("FindByID", mock.Anything, id).Return(payment, nil)
	f.repo.On("Update", mock.Anything, id, ports.Update{Status: &status}).Return(&updated, nil)

	result, err := f.service.Update(context.Background(), id, ports.Update{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, result.Status)
	f.invoices.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.sent)
}

func TestUpdate_InvoiceInsertFailurePropagates(t *testing.T) {
	f := newFixture()

	payment := pendingPayment()
	id := payment.ID.Hex()
	status := domain.StatusSuccessful

	updated := *payment
	updated.Status = domain.StatusSuccessful

	f.repo.On("FindByID", mock.Anything, id).Return(payment, nil)
	f.repo.On("Update", mock.Anything, id, mock.Anything).Return(&updated, nil)
	f.invoices.On("Insert", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := f.service.Update(context.Background(), id, ports.Update{Status: &status})

	assert.ErrorIs(t, err, assert.AnError)
	f.repo.AssertNotCalled(t, "SetInvoice", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.sent)
}

func TestUpdate_RejectsUnknownStatus(t *testing.T) {
	f := newFixture()

	bad := domain.Status("reversed")

	_, err := f.service.Update(context.Background(), primitive.NewObjectID().Hex(), ports.Update{Status: &bad})

	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_ZeroParcelsChargesFullAmount(t *testing.T) {
	f := newFixture()

	payment := pendingPayment()
	payment.ParcelIDs = nil
	id := payment.ID.Hex()
	status := domain.StatusSuccessful

	updated := *payment
	updated.Status = domain.StatusSuccessful

	f.repo.On("FindByID", mock.Anything, id).Return(payment, nil)
	f.repo.On("Update", mock.Anything, id, mock.Anything).Return(&updated, nil)
	f.invoices.On("Insert", mock.Anything, mock.MatchedBy(func(inv *invoicedomain.Invoice) bool {
		return inv.Items[0].Quantity == 0 && inv.Items[0].UnitPrice == 120
	})).Return(nil)
	f.repo.On("SetInvoice", mock.Anything, id, mock.AnythingOfType("primitive.ObjectID")).Return(&updated, nil)

	_, err := f.service.Update(context.Background(), id, ports.Update{Status: &status})

	require.NoError(t, err)
	f.invoices.AssertExpectations(t)
}
