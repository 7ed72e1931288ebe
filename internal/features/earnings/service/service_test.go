package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sparrow-parcel/internal/core/notify"
	"sparrow-parcel/internal/features/earnings/domain"
	"sparrow-parcel/internal/features/earnings/ports"

	commissionsdomain "sparrow-parcel/internal/features/commissions/domain"
	consolidationdomain "sparrow-parcel/internal/features/consolidations/domain"
	deliverydomain "sparrow-parcel/internal/features/deliveries/domain"
	deliveryports "sparrow-parcel/internal/features/deliveries/ports"
	directorydomain "sparrow-parcel/internal/features/directory/domain"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEarningsRepository is a mock implementation of ports.EarningsRepository.
type MockEarningsRepository struct {
	mock.Mock
}

func (m *MockEarningsRepository) Insert(ctx context.Context, earnings *domain.Earnings) error {
	args := m.Called(ctx, earnings)
	return args.Error(0)
}

func (m *MockEarningsRepository) Find(ctx context.Context, filter ports.Filter) ([]*domain.Earnings, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Earnings), args.Error(1)
}

func (m *MockEarningsRepository) FindByID(ctx context.Context, id string) (*domain.Earnings, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Earnings), args.Error(1)
}

func (m *MockEarningsRepository) FindByDriver(ctx context.Context, driverID string, filter ports.DriverFilter) ([]*domain.Earnings, error) {
	args := m.Called(ctx, driverID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Earnings), args.Error(1)
}

func (m *MockEarningsRepository) FindByDelivery(ctx context.Context, deliveryID string) (*domain.Earnings, error) {
	args := m.Called(ctx, deliveryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Earnings), args.Error(1)
}

func (m *MockEarningsRepository) Replace(ctx context.Context, earnings *domain.Earnings) (*domain.Earnings, error) {
	args := m.Called(ctx, earnings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Earnings), args.Error(1)
}

func (m *MockEarningsRepository) SetStatus(ctx context.Context, id string, status domain.Status, notes string, paidAt *time.Time) (*domain.Earnings, error) {
	args := m.Called(ctx, id, status, notes, paidAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Earnings), args.Error(1)
}

func (m *MockEarningsRepository) Delete(ctx context.Context, id string) (*domain.Earnings, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Earnings), args.Error(1)
}

// MockUserDirectory is a mock implementation of directoryports.UserDirectory.
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) FindUserByID(ctx context.Context, id string) (*directorydomain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directorydomain.User), args.Error(1)
}

// MockDeliveryRepository is a mock implementation of deliveryports.DeliveryRepository.
type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) Insert(ctx context.Context, delivery *deliverydomain.Delivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Find(ctx context.Context, filter deliveryports.Filter) ([]*deliverydomain.Delivery, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*deliverydomain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) FindByID(ctx context.Context, id string) (*deliverydomain.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deliverydomain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) FindByNumber(ctx context.Context, deliveryNumber string) (*deliverydomain.Delivery, error) {
	args := m.Called(ctx, deliveryNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deliverydomain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) Update(ctx context.Context, id string, update deliveryports.Update) (*deliverydomain.Delivery, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deliverydomain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) ApplyStatus(ctx context.Context, id string, status deliverydomain.Status, entry deliverydomain.StatusHistoryEntry, pickupAt, deliveredAt *time.Time) (*deliverydomain.Delivery, error) {
	args := m.Called(ctx, id, status, entry, pickupAt, deliveredAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deliverydomain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) SetDriver(ctx context.Context, id string, driverID primitive.ObjectID, entry deliverydomain.StatusHistoryEntry) (*deliverydomain.Delivery, error) {
	args := m.Called(ctx, id, driverID, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deliverydomain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) Delete(ctx context.Context, id string) (*deliverydomain.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deliverydomain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) CountParcels(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDeliveryRepository) FindConsolidation(ctx context.Context, id primitive.ObjectID) (*consolidationdomain.Consolidation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*consolidationdomain.Consolidation), args.Error(1)
}

func (m *MockDeliveryRepository) AssignParcels(ctx context.Context, ids []primitive.ObjectID, driverID primitive.ObjectID, warehouseID *primitive.ObjectID, status parceldomain.Status, entry parceldomain.StatusHistoryEntry) error {
	args := m.Called(ctx, ids, driverID, warehouseID, status, entry)
	return args.Error(0)
}

func (m *MockDeliveryRepository) PushParcelStatus(ctx context.Context, ids []primitive.ObjectID, status parceldomain.Status, entry parceldomain.StatusHistoryEntry) error {
	args := m.Called(ctx, ids, status, entry)
	return args.Error(0)
}

func (m *MockDeliveryRepository) PushConsolidationStatus(ctx context.Context, id primitive.ObjectID, status consolidationdomain.Status, entry consolidationdomain.StatusHistoryEntry) error {
	args := m.Called(ctx, id, status, entry)
	return args.Error(0)
}

// MockSettingsService is a mock implementation of commissionsports.SettingsService.
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) CreateOrUpdate(ctx context.Context, settings *commissionsdomain.Settings) (*commissionsdomain.Settings, error) {
	args := m.Called(ctx, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionsdomain.Settings), args.Error(1)
}

func (m *MockSettingsService) List(ctx context.Context) ([]*commissionsdomain.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*commissionsdomain.Settings), args.Error(1)
}

func (m *MockSettingsService) GetByType(ctx context.Context, deliveryType string) (*commissionsdomain.Settings, error) {
	args := m.Called(ctx, deliveryType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionsdomain.Settings), args.Error(1)
}

func (m *MockSettingsService) UpdateByType(ctx context.Context, deliveryType string, settings *commissionsdomain.Settings) (*commissionsdomain.Settings, error) {
	args := m.Called(ctx, deliveryType, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionsdomain.Settings), args.Error(1)
}

func (m *MockSettingsService) DeleteByType(ctx context.Context, deliveryType string) (*commissionsdomain.Settings, error) {
	args := m.Called(ctx, deliveryType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionsdomain.Settings), args.Error(1)
}

func (m *MockSettingsService) InitializeDefaults(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSettingsService) Resolve(ctx context.Context, deliveryType string) (*commissionsdomain.Settings, float64, error) {
	args := m.Called(ctx, deliveryType)
	if args.Get(0) == nil {
		return nil, args.Get(1).(float64), args.Error(2)
	}
	return args.Get(0).(*commissionsdomain.Settings), args.Get(1).(float64), args.Error(2)
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	sent []notify.Notification
}

func (r *recordingNotifier) Send(n notify.Notification) {
	r.sent = append(r.sent, n)
}

type fixture struct {
	repo        *MockEarningsRepository
	users       *MockUserDirectory
	deliveries  *MockDeliveryRepository
	commissions *MockSettingsService
	notifier    *recordingNotifier
	svc         *EarningsServiceImpl
}

func newFixture() *fixture {
	f := &fixture{
		repo:        new(MockEarningsRepository),
		users:       new(MockUserDirectory),
		deliveries:  new(MockDeliveryRepository),
		commissions: new(MockSettingsService),
		notifier:    &recordingNotifier{},
	}
	f.svc = NewEarningsService(f.repo, f.users, f.deliveries, f.commissions, f.notifier)
	return f
}

func completedDelivery() *deliverydomain.Delivery {
	completedAt := time.Now().Add(-time.Minute).UTC()
	return &deliverydomain.Delivery{
		ID:                 primitive.NewObjectID(),
		DeliveryNumber:     "DEL-TEST-EARN01",
		DeliveryItemType:   deliverydomain.ItemTypeParcel,
		AssignedDriver:     primitive.NewObjectID(),
		DeliveryType:       deliverydomain.TypeWarehouseToAddress,
		Priority:           deliverydomain.PriorityNormal,
		Status:             deliverydomain.StatusDelivered,
		ActualDeliveryTime: &completedAt,
		Parcels: []*parceldomain.Parcel{
			{Weight: parceldomain.Weight{Value: 2}},
		},
	}
}

func TestCreateForDelivery_CreatesApprovedRecord(t *testing.T) {
	f := newFixture()
	delivery := completedDelivery()

	settings := &commissionsdomain.Settings{DeliveryType: delivery.DeliveryType, CommissionRate: 15, BaseAmount: 70}
	f.repo.On("FindByDelivery", mock.Anything, delivery.ID.Hex()).Return(nil, nil)
	f.commissions.On("Resolve", mock.Anything, delivery.DeliveryType).Return(settings, 15.0, nil)

	var saved *domain.Earnings
	f.repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Earnings")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.Earnings) }).
		Return(nil)

	err := f.svc.CreateForDelivery(context.Background(), delivery)

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, delivery.AssignedDriver, saved.DriverID)
	assert.Equal(t, domain.StatusApproved, saved.Status)
	assert.Equal(t, *delivery.ActualDeliveryTime, saved.DeliveryCompletedAt)

	// base 70 + 2kg*10 + estimated 15km*5 = 165, commission 15% = 24.75
	assert.Equal(t, 165.0, saved.BaseAmount)
	assert.Equal(t, 24.75, saved.CommissionAmount)
	assert.Equal(t, 24.75, saved.TotalEarnings)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "earnings_created", f.notifier.sent[0].Type)
	assert.Contains(t, f.notifier.sent[0].Message, "Rs. 24.75")
}

func TestCreateForDelivery_Idempotent(t *testing.T) {
	f := newFixture()
	delivery := completedDelivery()

	f.repo.On("FindByDelivery", mock.Anything, delivery.ID.Hex()).
		Return(&domain.Earnings{ID: primitive.NewObjectID()}, nil)

	err := f.svc.CreateForDelivery(context.Background(), delivery)

	require.NoError(t, err)
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.sent)
}

func TestCreateForDelivery_SkipsWithoutItems(t *testing.T) {
	f := newFixture()
	delivery := completedDelivery()
	delivery.Parcels = nil

	f.repo.On("FindByDelivery", mock.Anything, delivery.ID.Hex()).Return(nil, nil)

	err := f.svc.CreateForDelivery(context.Background(), delivery)

	require.NoError(t, err)
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreateForDelivery_SkipsWithoutDriver(t *testing.T) {
	f := newFixture()
	delivery := completedDelivery()
	delivery.AssignedDriver = primitive.NilObjectID

	err := f.svc.CreateForDelivery(context.Background(), delivery)

	require.NoError(t, err)
	f.repo.AssertNotCalled(t, "FindByDelivery", mock.Anything, mock.Anything)
}

func TestCreateForDelivery_UrgentBonus(t *testing.T) {
	f := newFixture()
	delivery := completedDelivery()
	delivery.Priority = deliverydomain.PriorityUrgent

	settings := &commissionsdomain.Settings{CommissionRate: 10, BaseAmount: 100, UrgentDeliveryBonus: 50}
	f.repo.On("FindByDelivery", mock.Anything, delivery.ID.Hex()).Return(nil, nil)
	f.commissions.On("Resolve", mock.Anything, delivery.DeliveryType).Return(settings, 10.0, nil)

	var saved *domain.Earnings
	f.repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Earnings")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.Earnings) }).
		Return(nil)

	err := f.svc.CreateForDelivery(context.Background(), delivery)

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 50.0, saved.BonusAmount)
	// (100 + 20 + 75) * 1.5 = 292.5, commission 10% = 29.25, plus bonus
	assert.Equal(t, 292.5, saved.BaseAmount)
	assert.Equal(t, 79.25, saved.TotalEarnings)
}

func TestCreateForDelivery_HardcodedRateFallback(t *testing.T) {
	f := newFixture()
	delivery := completedDelivery()

	f.repo.On("FindByDelivery", mock.Anything, delivery.ID.Hex()).Return(nil, nil)
	f.commissions.On("Resolve", mock.Anything, delivery.DeliveryType).
		Return(nil, commissionsdomain.FallbackCommissionRate, nil)

	var saved *domain.Earnings
	f.repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Earnings")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.Earnings) }).
		Return(nil)

	err := f.svc.CreateForDelivery(context.Background(), delivery)

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, commissionsdomain.FallbackCommissionRate, saved.CommissionRate)
	assert.Zero(t, saved.BonusAmount)
}

func TestCreate_RejectsUnassignedDriver(t *testing.T) {
	f := newFixture()

	driverID := primitive.NewObjectID()
	deliveryID := primitive.NewObjectID()

	f.users.On("FindUserByID", mock.Anything, driverID.Hex()).
		Return(&directorydomain.User{ID: driverID, Role: directorydomain.RoleDriver}, nil)
	f.deliveries.On("FindByID", mock.Anything, deliveryID.Hex()).
		Return(&deliverydomain.Delivery{ID: deliveryID, AssignedDriver: primitive.NewObjectID()}, nil)

	_, err := f.svc.Create(context.Background(), &domain.Earnings{
		DriverID:   driverID,
		DeliveryID: deliveryID,
		BaseAmount: 100,
	})

	assert.EqualError(t, err, "driver not assigned to this delivery")
}

func TestCreate_ReturnsExistingRecord(t *testing.T) {
	f := newFixture()

	driverID := primitive.NewObjectID()
	deliveryID := primitive.NewObjectID()
	existing := &domain.Earnings{ID: primitive.NewObjectID(), DeliveryID: deliveryID}

	f.users.On("FindUserByID", mock.Anything, driverID.Hex()).
		Return(&directorydomain.User{ID: driverID, Role: directorydomain.RoleDriver}, nil)
	f.deliveries.On("FindByID", mock.Anything, deliveryID.Hex()).
		Return(&deliverydomain.Delivery{ID: deliveryID, AssignedDriver: driverID}, nil)
	f.repo.On("FindByDelivery", mock.Anything, deliveryID.Hex()).Return(existing, nil)

	got, err := f.svc.Create(context.Background(), &domain.Earnings{
		DriverID:   driverID,
		DeliveryID: deliveryID,
		BaseAmount: 100,
	})

	require.NoError(t, err)
	assert.Same(t, existing, got)
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestUpdate_RecomputesDerivedAmounts(t *testing.T) {
	f := newFixture()

	id := primitive.NewObjectID()
	current := &domain.Earnings{ID: id, BaseAmount: 100, CommissionRate: 10, CommissionAmount: 10, TotalEarnings: 10}
	newBase := 200.0

	f.repo.On("FindByID", mock.Anything, id.Hex()).Return(current, nil)
	f.repo.On("Replace", mock.Anything, mock.MatchedBy(func(e *domain.Earnings) bool {
		return e.BaseAmount == 200 && e.CommissionAmount == 20 && e.TotalEarnings == 20
	})).Return(current, nil)

	_, err := f.svc.Update(context.Background(), id.Hex(), ports.Update{BaseAmount: &newBase})

	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestUpdateStatus_PaidStampsPaidAt(t *testing.T) {
	f := newFixture()

	id := primitive.NewObjectID()
	f.repo.On("SetStatus", mock.Anything, id.Hex(), domain.StatusPaid, "", mock.AnythingOfType("*time.Time")).
		Return(&domain.Earnings{ID: id, Status: domain.StatusPaid}, nil)

	record, err := f.svc.UpdateStatus(context.Background(), id.Hex(), domain.StatusPaid, "")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, record.Status)
	f.repo.AssertExpectations(t)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newFixture()

	_, err := f.svc.UpdateStatus(context.Background(), primitive.NewObjectID().Hex(), "reimbursed", "")

	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestSummary_DelegatesWindow(t *testing.T) {
	f := newFixture()

	driverID := primitive.NewObjectID().Hex()
	start := time.Now().Add(-30 * 24 * time.Hour).UTC()

	f.repo.On("FindByDriver", mock.Anything, driverID, ports.DriverFilter{StartDate: &start}).
		Return([]*domain.Earnings{
			{Status: domain.StatusApproved, TotalEarnings: 120, CommissionAmount: 120},
		}, nil)

	summary, err := f.svc.Summary(context.Background(), driverID, &start, nil)

	require.NoError(t, err)
	assert.Equal(t, 120.0, summary.TotalEarnings)
	assert.Equal(t, 1, summary.DeliveryCount)
	assert.Equal(t, 120.0, summary.ApprovedAmount)
}
