package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sparrow-parcel/internal/core/notify"
	"sparrow-parcel/internal/features/deliveries/domain"
	"sparrow-parcel/internal/features/deliveries/ports"

	consolidationdomain "sparrow-parcel/internal/features/consolidations/domain"
	directorydomain "sparrow-parcel/internal/features/directory/domain"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDeliveryRepository is a mock implementation of ports.DeliveryRepository.
type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) Insert(ctx context.Context, delivery *domain.Delivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Find(ctx context.Context, filter ports.Filter) ([]*domain.Delivery, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) FindByID(ctx context.Context, id string) (*domain.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) FindByNumber(ctx context.Context, deliveryNumber string) (*domain.Delivery, error) {
	args := m.Called(ctx, deliveryNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) Update(ctx context.Context, id string, update ports.Update) (*domain.Delivery, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) ApplyStatus(ctx context.Context, id string, status domain.Status, entry domain.StatusHistoryEntry, pickupAt, deliveredAt *time.Time) (*domain.Delivery, error) {
	args := m.Called(ctx, id, status, entry, pickupAt, deliveredAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) SetDriver(ctx context.Context, id string, driverID primitive.ObjectID, entry domain.StatusHistoryEntry) (*domain.Delivery, error) {
	args := m.Called(ctx, id, driverID, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) Delete(ctx context.Context, id string) (*domain.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Delivery), args.Error(1)
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

// MockWarehouseDirectory is a mock implementation of directoryports.WarehouseDirectory.
type MockWarehouseDirectory struct {
	mock.Mock
}

func (m *MockWarehouseDirectory) FindWarehouseByID(ctx context.Context, id string) (*directorydomain.Warehouse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directorydomain.Warehouse), args.Error(1)
}

// MockEarningsCreator is a mock implementation of ports.EarningsCreator.
type MockEarningsCreator struct {
	mock.Mock
}

func (m *MockEarningsCreator) CreateForDelivery(ctx context.Context, delivery *domain.Delivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	sent []notify.Notification
}

func (r *recordingNotifier) Send(n notify.Notification) {
	r.sent = append(r.sent, n)
}

type fixture struct {
	repo       *MockDeliveryRepository
	users      *MockUserDirectory
	warehouses *MockWarehouseDirectory
	notifier   *recordingNotifier
	earnings   *MockEarningsCreator
	svc        *DeliveryServiceImpl
}

func newFixture() *fixture {
	f := &fixture{
		repo:       new(MockDeliveryRepository),
		users:      new(MockUserDirectory),
		warehouses: new(MockWarehouseDirectory),
		notifier:   &recordingNotifier{},
		earnings:   new(MockEarningsCreator),
	}
	f.svc = NewDeliveryService(f.repo, f.users, f.warehouses, f.notifier, f.earnings)
	return f
}

func activeDriver(id primitive.ObjectID) *directorydomain.User {
	return &directorydomain.User{ID: id, UserName: "kamal", Role: directorydomain.RoleDriver}
}

func TestCreate_ParcelDelivery(t *testing.T) {
	f := newFixture()

	driverID := primitive.NewObjectID()
	staffID := primitive.NewObjectID()
	warehouseID := primitive.NewObjectID()
	parcelIDs := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}

	f.users.On("FindUserByID", mock.Anything, driverID.Hex()).Return(activeDriver(driverID), nil)
	f.warehouses.On("FindWarehouseByID", mock.Anything, warehouseID.Hex()).
		Return(&directorydomain.Warehouse{ID: warehouseID, Name: "Central", Status: directorydomain.WarehouseStatusActive}, nil)
	f.repo.On("CountParcels", mock.Anything, parcelIDs).Return(int64(2), nil)
	f.repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Delivery")).Return(nil)
	f.repo.On("AssignParcels", mock.Anything, parcelIDs, driverID, &warehouseID,
		parceldomain.StatusAssignedToDriver, mock.AnythingOfType("domain.StatusHistoryEntry")).Return(nil)

	delivery := &domain.Delivery{
		DeliveryItemType: domain.ItemTypeParcel,
		ParcelIDs:        parcelIDs,
		AssignedDriver:   driverID,
		AssignedBy:       &staffID,
		FromLocation:     domain.Location{Type: domain.LocationAddress, Address: "12 Main St", Latitude: 6.9, Longitude: 79.8},
		ToLocation:       domain.Location{Type: domain.LocationWarehouse, WarehouseID: &warehouseID},
	}

	created, err := f.svc.Create(context.Background(), delivery)

	require.NoError(t, err)
	assert.Equal(t, domain.TypeAddressToWarehouse, created.DeliveryType)
	assert.Equal(t, domain.StatusAssigned, created.Status)
	assert.Equal(t, domain.PriorityNormal, created.Priority)
	assert.Regexp(t, `^DEL-[0-9A-Z]+-[0-9A-Z]{6}$`, created.DeliveryNumber)

	require.Len(t, created.StatusHistory, 1)
	assert.Equal(t, "Delivery created: address to warehouse - 2 parcel(s)", created.StatusHistory[0].Note)

	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, "delivery_assignment", f.notifier.sent[0].Type)
	assert.Equal(t, driverID.Hex(), f.notifier.sent[0].UserID)
	assert.Contains(t, f.notifier.sent[0].Message, "Address To Warehouse")
	assert.Equal(t, "delivery_update", f.notifier.sent[1].Type)
	assert.Equal(t, staffID.Hex(), f.notifier.sent[1].UserID)

	f.repo.AssertExpectations(t)
}

func TestCreate_ConsolidationDelivery(t *testing.T) {
	f := newFixture()

	driverID := primitive.NewObjectID()
	warehouseID := primitive.NewObjectID()
	consolidationID := primitive.NewObjectID()
	memberIDs := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}

	f.users.On("FindUserByID", mock.Anything, driverID.Hex()).Return(activeDriver(driverID), nil)
	f.warehouses.On("FindWarehouseByID", mock.Anything, warehouseID.Hex()).
		Return(&directorydomain.Warehouse{ID: warehouseID, Status: directorydomain.WarehouseStatusActive}, nil)
	f.repo.On("FindConsolidation", mock.Anything, consolidationID).
		Return(&consolidationdomain.Consolidation{ID: consolidationID, ParcelIDs: memberIDs}, nil)
	f.repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Delivery")).Return(nil)
	f.repo.On("PushConsolidationStatus", mock.Anything, consolidationID,
		consolidationdomain.StatusInTransit, mock.AnythingOfType("domain.StatusHistoryEntry")).Return(nil)
	f.repo.On("AssignParcels", mock.Anything, memberIDs, driverID, &warehouseID,
		parceldomain.StatusInTransit, mock.AnythingOfType("domain.StatusHistoryEntry")).Return(nil)

	delivery := &domain.Delivery{
		DeliveryItemType: domain.ItemTypeConsolidation,
		ConsolidationID:  &consolidationID,
		AssignedDriver:   driverID,
		FromLocation:     domain.Location{Type: domain.LocationWarehouse, WarehouseID: &warehouseID},
		ToLocation:       domain.Location{Type: domain.LocationWarehouse, WarehouseID: &warehouseID},
	}

	created, err := f.svc.Create(context.Background(), delivery)

	require.NoError(t, err)
	assert.Equal(t, domain.TypeWarehouseToWarehouse, created.DeliveryType)
	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0].Message, "1 consolidation")
	f.repo.AssertExpectations(t)
}

func TestCreate_RejectsNonDriver(t *testing.T) {
	f := newFixture()

	driverID := primitive.NewObjectID()
	parcelIDs := []primitive.ObjectID{primitive.NewObjectID()}

	f.repo.On("CountParcels", mock.Anything, parcelIDs).Return(int64(1), nil)
	f.users.On("FindUserByID", mock.Anything, driverID.Hex()).
		Return(&directorydomain.User{ID: driverID, UserName: "nimal", Role: "Staff"}, nil)

	_, err := f.svc.Create(context.Background(), &domain.Delivery{
		DeliveryItemType: domain.ItemTypeParcel,
		ParcelIDs:        parcelIDs,
		AssignedDriver:   driverID,
	})

	assert.EqualError(t, err, "assigned user is not a driver")
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreate_RejectsMissingParcels(t *testing.T) {
	f := newFixture()

	parcelIDs := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
	f.repo.On("CountParcels", mock.Anything, parcelIDs).Return(int64(1), nil)

	_, err := f.svc.Create(context.Background(), &domain.Delivery{
		DeliveryItemType: domain.ItemTypeParcel,
		ParcelIDs:        parcelIDs,
		AssignedDriver:   primitive.NewObjectID(),
	})

	assert.EqualError(t, err, "one or more parcels not found")
}

func TestCreate_RejectsAddressToAddress(t *testing.T) {
	f := newFixture()

	driverID := primitive.NewObjectID()
	parcelIDs := []primitive.ObjectID{primitive.NewObjectID()}

	f.repo.On("CountParcels", mock.Anything, parcelIDs).Return(int64(1), nil)
	f.users.On("FindUserByID", mock.Anything, driverID.Hex()).Return(activeDriver(driverID), nil)

	_, err := f.svc.Create(context.Background(), &domain.Delivery{
		DeliveryItemType: domain.ItemTypeParcel,
		ParcelIDs:        parcelIDs,
		AssignedDriver:   driverID,
		FromLocation:     domain.Location{Type: domain.LocationAddress, Address: "12 Main St", Latitude: 6.9, Longitude: 79.8},
		ToLocation:       domain.Location{Type: domain.LocationAddress, Address: "34 Lake Rd", Latitude: 7.2, Longitude: 80.6},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidRoute)
}

func TestCreate_RejectsInactiveWarehouse(t *testing.T) {
	f := newFixture()

	driverID := primitive.NewObjectID()
	warehouseID := primitive.NewObjectID()
	parcelIDs := []primitive.ObjectID{primitive.NewObjectID()}

	f.repo.On("CountParcels", mock.Anything, parcelIDs).Return(int64(1), nil)
	f.users.On("FindUserByID", mock.Anything, driverID.Hex()).Return(activeDriver(driverID), nil)
	f.warehouses.On("FindWarehouseByID", mock.Anything, warehouseID.Hex()).
		Return(&directorydomain.Warehouse{ID: warehouseID, Status: "inactive"}, nil)

	_, err := f.svc.Create(context.Background(), &domain.Delivery{
		DeliveryItemType: domain.ItemTypeParcel,
		ParcelIDs:        parcelIDs,
		AssignedDriver:   driverID,
		FromLocation:     domain.Location{Type: domain.LocationWarehouse, WarehouseID: &warehouseID},
		ToLocation:       domain.Location{Type: domain.LocationAddress, Address: "12 Main St", Latitude: 6.9, Longitude: 79.8},
	})

	assert.EqualError(t, err, "fromLocation warehouse is not active")
}

func TestUpdateStatus_DeliveredToWarehouse(t *testing.T) {
	f := newFixture()

	driverID := primitive.NewObjectID()
	id := primitive.NewObjectID()
	parcelIDs := []primitive.ObjectID{primitive.NewObjectID()}

	stored := &domain.Delivery{
		ID:               id,
		DeliveryNumber:   "DEL-TEST-ABC123",
		DeliveryItemType: domain.ItemTypeParcel,
		ParcelIDs:        parcelIDs,
		AssignedDriver:   driverID,
		Status:           domain.StatusInTransit,
		ToLocation:       domain.Location{Type: domain.LocationWarehouse},
	}
	delivered := *stored
	delivered.Status = domain.StatusDelivered

	f.repo.On("FindByID", mock.Anything, id.Hex()).Return(stored, nil)
	f.repo.On("ApplyStatus", mock.Anything, id.Hex(), domain.StatusDelivered,
		mock.AnythingOfType("domain.StatusHistoryEntry"), (*time.Time)(nil), mock.AnythingOfType("*time.Time")).
		Return(&delivered, nil)
	f.earnings.On("CreateForDelivery", mock.Anything, &delivered).Return(nil)
	f.repo.On("PushParcelStatus", mock.Anything, parcelIDs, parceldomain.StatusAtWarehouse,
		mock.AnythingOfType("domain.StatusHistoryEntry")).Return(nil)

	updated, err := f.svc.UpdateStatus(context.Background(), id.Hex(), ports.StatusUpdate{Status: domain.StatusDelivered})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, updated.Status)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "Delivery Status Updated", f.notifier.sent[0].Title)
	f.repo.AssertExpectations(t)
	f.earnings.AssertExpectations(t)
}

func TestUpdateStatus_EarningsFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture()

	id := primitive.NewObjectID()
	stored := &domain.Delivery{
		ID:               id,
		DeliveryNumber:   "DEL-TEST-XYZ789",
		DeliveryItemType: domain.ItemTypeParcel,
		ParcelIDs:        []primitive.ObjectID{primitive.NewObjectID()},
		AssignedDriver:   primitive.NewObjectID(),
		Status:           domain.StatusInTransit,
		ToLocation:       domain.Location{Type: domain.LocationAddress},
	}
	delivered := *stored
	delivered.Status = domain.StatusDelivered

	f.repo.On("FindByID", mock.Anything, id.Hex()).Return(stored, nil)
	f.repo.On("ApplyStatus", mock.Anything, id.Hex(), domain.StatusDelivered,
		mock.Anything, mock.Anything, mock.Anything).Return(&delivered, nil)
	f.earnings.On("CreateForDelivery", mock.Anything, &delivered).Return(errors.New("earnings store down"))
	f.repo.On("PushParcelStatus", mock.Anything, stored.ParcelIDs, parceldomain.StatusDelivered,
		mock.Anything).Return(nil)

	_, err := f.svc.UpdateStatus(context.Background(), id.Hex(), ports.StatusUpdate{Status: domain.StatusDelivered})

	assert.NoError(t, err)
}

func TestUpdateStatus_PickupTimestampIdempotent(t *testing.T) {
	f := newFixture()

	id := primitive.NewObjectID()
	alreadyPicked := time.Now().Add(-time.Hour).UTC()
	stored := &domain.Delivery{
		ID:               id,
		DeliveryNumber:   "DEL-TEST-PICKED",
		DeliveryItemType: domain.ItemTypeParcel,
		AssignedDriver:   primitive.NewObjectID(),
		Status:           domain.StatusPickedUp,
		ActualPickupTime: &alreadyPicked,
		ToLocation:       domain.Location{Type: domain.LocationAddress},
	}

	f.repo.On("ApplyStatus", mock.Anything, id.Hex(), domain.StatusPickedUp,
		mock.Anything, (*time.Time)(nil), (*time.Time)(nil)).Return(stored, nil)
	f.repo.On("FindByID", mock.Anything, id.Hex()).Return(stored, nil)

	_, err := f.svc.UpdateStatus(context.Background(), id.Hex(), ports.StatusUpdate{Status: domain.StatusPickedUp})

	require.NoError(t, err)
	f.repo.AssertExpectations(t)
	// Same status again, so no driver notification either.
	assert.Empty(t, f.notifier.sent)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newFixture()

	_, err := f.svc.UpdateStatus(context.Background(), primitive.NewObjectID().Hex(), ports.StatusUpdate{Status: "teleported"})

	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestReassign_NotifiesBothDrivers(t *testing.T) {
	f := newFixture()

	id := primitive.NewObjectID()
	oldDriverID := primitive.NewObjectID()
	newDriverID := primitive.NewObjectID()

	stored := &domain.Delivery{
		ID:             id,
		DeliveryNumber: "DEL-TEST-REASGN",
		AssignedDriver: oldDriverID,
		Status:         domain.StatusAssigned,
		Driver:         &directorydomain.User{ID: oldDriverID, UserName: "sunil", Role: directorydomain.RoleDriver},
	}
	reassigned := *stored
	reassigned.AssignedDriver = newDriverID

	f.users.On("FindUserByID", mock.Anything, newDriverID.Hex()).Return(activeDriver(newDriverID), nil)
	f.repo.On("FindByID", mock.Anything, id.Hex()).Return(stored, nil)
	f.repo.On("SetDriver", mock.Anything, id.Hex(), newDriverID,
		mock.AnythingOfType("domain.StatusHistoryEntry")).Return(&reassigned, nil)

	_, err := f.svc.Reassign(context.Background(), id.Hex(), newDriverID.Hex())

	require.NoError(t, err)
	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, oldDriverID.Hex(), f.notifier.sent[0].UserID)
	assert.Equal(t, "Delivery Reassigned", f.notifier.sent[0].Title)
	assert.Equal(t, newDriverID.Hex(), f.notifier.sent[1].UserID)
	assert.Equal(t, "delivery_assignment", f.notifier.sent[1].Type)
}
