package service

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sparrow-parcel/internal/features/consolidations/domain"
	"sparrow-parcel/internal/features/consolidations/ports"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"
	parcelports "sparrow-parcel/internal/features/parcels/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockConsolidationRepository is a mock implementation of ports.ConsolidationRepository.
type MockConsolidationRepository struct {
	mock.Mock
}

func (m *MockConsolidationRepository) Insert(ctx context.Context, consolidation *domain.Consolidation) error {
	args := m.Called(ctx, consolidation)
	return args.Error(0)
}

func (m *MockConsolidationRepository) Find(ctx context.Context, filter ports.Filter) ([]*domain.Consolidation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Consolidation), args.Error(1)
}

func (m *MockConsolidationRepository) FindByID(ctx context.Context, id string) (*domain.Consolidation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Consolidation), args.Error(1)
}

func (m *MockConsolidationRepository) SetStatus(ctx context.Context, id string, status domain.Status, entry domain.StatusHistoryEntry) (*domain.Consolidation, error) {
	args := m.Called(ctx, id, status, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Consolidation), args.Error(1)
}

func (m *MockConsolidationRepository) Delete(ctx context.Context, id string) (*domain.Consolidation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Consolidation), args.Error(1)
}

// MockParcelRepository is a mock implementation of parcelports.ParcelRepository.
type MockParcelRepository struct {
	mock.Mock
}

func (m *MockParcelRepository) Insert(ctx context.Context, parcel *parceldomain.Parcel) error {
	args := m.Called(ctx, parcel)
	return args.Error(0)
}

func (m *MockParcelRepository) Find(ctx context.Context, filter parcelports.Filter) ([]*parceldomain.Parcel, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*parceldomain.Parcel), args.Error(1)
}

func (m *MockParcelRepository) FindByID(ctx context.Context, id string) (*parceldomain.Parcel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*parceldomain.Parcel), args.Error(1)
}

func (m *MockParcelRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*parceldomain.Parcel, error) {
	args := m.Called(ctx, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*parceldomain.Parcel), args.Error(1)
}

func (m *MockParcelRepository) Update(ctx context.Context, id string, update parcelports.Update) (*parceldomain.Parcel, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*parceldomain.Parcel), args.Error(1)
}

func (m *MockParcelRepository) SetStatus(ctx context.Context, id string, status parceldomain.Status, entry parceldomain.StatusHistoryEntry) (*parceldomain.Parcel, error) {
	args := m.Called(ctx, id, status, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*parceldomain.Parcel), args.Error(1)
}

func (m *MockParcelRepository) AssignDriver(ctx context.Context, id, driverID string, entry parceldomain.StatusHistoryEntry) (*parceldomain.Parcel, error) {
	args := m.Called(ctx, id, driverID, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*parceldomain.Parcel), args.Error(1)
}

func (m *MockParcelRepository) Delete(ctx context.Context, id string) (*parceldomain.Parcel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*parceldomain.Parcel), args.Error(1)
}

type fixture struct {
	repo    *MockConsolidationRepository
	parcels *MockParcelRepository
	svc     *ConsolidationServiceImpl
}

func newFixture() *fixture {
	f := &fixture{
		repo:    new(MockConsolidationRepository),
		parcels: new(MockParcelRepository),
	}
	f.svc = NewConsolidationService(f.repo, f.parcels)
	return f
}

func TestCreate_GeneratesIdentifiersAndMarksParcels(t *testing.T) {
	f := newFixture()

	parcelIDs := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
	f.repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Consolidation")).Return(nil)
	for _, id := range parcelIDs {
		f.parcels.On("SetStatus", mock.Anything, id.Hex(), parceldomain.StatusConsolidated,
			mock.AnythingOfType("domain.StatusHistoryEntry")).Return(&parceldomain.Parcel{ID: id}, nil)
	}

	got, err := f.svc.Create(context.Background(), &domain.Consolidation{
		ParcelIDs: parcelIDs,
		CreatedBy: primitive.NewObjectID(),
	})

	require.NoError(t, err)
	assert.Regexp(t, `^CON-[0-9A-F]{8}$`, got.ReferenceCode)
	assert.Regexp(t, `^MTN-[0-9A-F]{12}$`, got.MasterTrackingNumber)
	assert.Equal(t, domain.StatusPending, got.Status)

	require.Len(t, got.StatusHistory, 1)
	assert.Equal(t, "Consolidation created with 2 parcel(s)", got.StatusHistory[0].Note)

	f.parcels.AssertExpectations(t)
}

func TestCreate_KeepsCallerIdentifiers(t *testing.T) {
	f := newFixture()

	parcelID := primitive.NewObjectID()
	f.repo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.parcels.On("SetStatus", mock.Anything, parcelID.Hex(), parceldomain.StatusConsolidated,
		mock.Anything).Return(&parceldomain.Parcel{ID: parcelID}, nil)

	got, err := f.svc.Create(context.Background(), &domain.Consolidation{
		ReferenceCode:        "CON-CUSTOM01",
		MasterTrackingNumber: "MTN-CUSTOM000001",
		ParcelIDs:            []primitive.ObjectID{parcelID},
	})

	require.NoError(t, err)
	assert.Equal(t, "CON-CUSTOM01", got.ReferenceCode)
	assert.Equal(t, "MTN-CUSTOM000001", got.MasterTrackingNumber)
}

func TestCreate_RejectsEmptyParcelList(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), &domain.Consolidation{})

	assert.ErrorIs(t, err, domain.ErrNoParcels)
	f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreate_ParcelStatusFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture()

	parcelID := primitive.NewObjectID()
	f.repo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.parcels.On("SetStatus", mock.Anything, parcelID.Hex(), parceldomain.StatusConsolidated,
		mock.Anything).Return(nil, errors.New("write conflict"))

	got, err := f.svc.Create(context.Background(), &domain.Consolidation{
		ParcelIDs: []primitive.ObjectID{parcelID},
	})

	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestUpdateStatus_AppendsHistoryEntry(t *testing.T) {
	f := newFixture()

	id := primitive.NewObjectID().Hex()
	f.repo.On("SetStatus", mock.Anything, id, domain.StatusInTransit,
		mock.MatchedBy(func(entry domain.StatusHistoryEntry) bool {
			return entry.Status == domain.StatusInTransit && entry.Note == "loaded on truck"
		})).Return(&domain.Consolidation{Status: domain.StatusInTransit}, nil)

	got, err := f.svc.UpdateStatus(context.Background(), id, domain.StatusInTransit, "loaded on truck")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusInTransit, got.Status)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newFixture()

	_, err := f.svc.UpdateStatus(context.Background(), primitive.NewObjectID().Hex(), "misplaced", "")

	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	f.repo.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
