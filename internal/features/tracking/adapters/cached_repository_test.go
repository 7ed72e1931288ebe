package adapters

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sparrow-parcel/internal/core/cache"
	"sparrow-parcel/internal/features/tracking/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTrackingRepository is a mock implementation of ports.TrackingRepository.
type MockTrackingRepository struct {
	mock.Mock
}

func (m *MockTrackingRepository) Insert(ctx context.Context, tracking *domain.Tracking) error {
	args := m.Called(ctx, tracking)
	return args.Error(0)
}

func (m *MockTrackingRepository) FindByNumber(ctx context.Context, trackingNumber string) (*domain.Tracking, error) {
	args := m.Called(ctx, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tracking), args.Error(1)
}

func (m *MockTrackingRepository) FindActive(ctx context.Context) ([]*domain.Tracking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Tracking), args.Error(1)
}

func (m *MockTrackingRepository) FindByDriver(ctx context.Context, driverID string) ([]*domain.Tracking, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Tracking), args.Error(1)
}

func (m *MockTrackingRepository) AddEvent(ctx context.Context, trackingNumber string, event domain.Event) (*domain.Tracking, error) {
	args := m.Called(ctx, trackingNumber, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tracking), args.Error(1)
}

func (m *MockTrackingRepository) SetLocation(ctx context.Context, trackingNumber string, location domain.CurrentLocation) (*domain.Tracking, error) {
	args := m.Called(ctx, trackingNumber, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tracking), args.Error(1)
}

func newCached(t *testing.T, inner *MockTrackingRepository, ttl time.Duration) (*CachedTrackingRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	adapter, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	return NewCachedTrackingRepository(inner, adapter, ttl), mr
}

func TestFindByNumber_SecondLookupServedFromCache(t *testing.T) {
	inner := new(MockTrackingRepository)
	cached, _ := newCached(t, inner, time.Minute)

	tracking := &domain.Tracking{
		ID:             primitive.NewObjectID(),
		TrackingNumber: "TRK-CACHE-001",
		CurrentStatus:  domain.StatusInTransit,
	}
	inner.On("FindByNumber", mock.Anything, "TRK-CACHE-001").Return(tracking, nil).Once()

	ctx := context.Background()

	first, err := cached.FindByNumber(ctx, "TRK-CACHE-001")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := cached.FindByNumber(ctx, "TRK-CACHE-001")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, tracking.TrackingNumber, second.TrackingNumber)
	assert.Equal(t, tracking.CurrentStatus, second.CurrentStatus)

	inner.AssertNumberOfCalls(t, "FindByNumber", 1)
}

func TestFindByNumber_MissesAreNotCached(t *testing.T) {
	inner := new(MockTrackingRepository)
	cached, _ := newCached(t, inner, time.Minute)

	inner.On("FindByNumber", mock.Anything, "TRK-UNKNOWN").Return(nil, nil).Twice()

	ctx := context.Background()

	tracking, err := cached.FindByNumber(ctx, "TRK-UNKNOWN")
	require.NoError(t, err)
	assert.Nil(t, tracking)

	tracking, err = cached.FindByNumber(ctx, "TRK-UNKNOWN")
	require.NoError(t, err)
	assert.Nil(t, tracking)

	inner.AssertNumberOfCalls(t, "FindByNumber", 2)
}

func TestFindByNumber_ExpiredEntryFallsThrough(t *testing.T) {
	inner := new(MockTrackingRepository)
	cached, mr := newCached(t, inner, time.Second)

	tracking := &domain.Tracking{TrackingNumber: "TRK-TTL-001", CurrentStatus: domain.StatusAtWarehouse}
	inner.On("FindByNumber", mock.Anything, "TRK-TTL-001").Return(tracking, nil).Twice()

	ctx := context.Background()

	_, err := cached.FindByNumber(ctx, "TRK-TTL-001")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = cached.FindByNumber(ctx, "TRK-TTL-001")
	require.NoError(t, err)

	inner.AssertNumberOfCalls(t, "FindByNumber", 2)
}

func TestAddEvent_InvalidatesCachedEntry(t *testing.T) {
	inner := new(MockTrackingRepository)
	cached, _ := newCached(t, inner, time.Minute)

	stale := &domain.Tracking{TrackingNumber: "TRK-INVAL-01", CurrentStatus: domain.StatusInTransit}
	fresh := &domain.Tracking{TrackingNumber: "TRK-INVAL-01", CurrentStatus: domain.StatusDelivered}

	inner.On("FindByNumber", mock.Anything, "TRK-INVAL-01").Return(stale, nil).Once()
	inner.On("AddEvent", mock.Anything, "TRK-INVAL-01", mock.AnythingOfType("domain.Event")).Return(fresh, nil)
	inner.On("FindByNumber", mock.Anything, "TRK-INVAL-01").Return(fresh, nil).Once()

	ctx := context.Background()

	_, err := cached.FindByNumber(ctx, "TRK-INVAL-01")
	require.NoError(t, err)

	_, err = cached.AddEvent(ctx, "TRK-INVAL-01", domain.Event{Status: domain.StatusDelivered, Timestamp: time.Now().UTC()})
	require.NoError(t, err)

	got, err := cached.FindByNumber(ctx, "TRK-INVAL-01")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, got.CurrentStatus)

	inner.AssertNumberOfCalls(t, "FindByNumber", 2)
}

func TestSetLocation_InvalidatesCachedEntry(t *testing.T) {
	inner := new(MockTrackingRepository)
	cached, mr := newCached(t, inner, time.Minute)

	tracking := &domain.Tracking{TrackingNumber: "TRK-LOC-001", CurrentStatus: domain.StatusOutForDelivery}
	inner.On("FindByNumber", mock.Anything, "TRK-LOC-001").Return(tracking, nil)
	inner.On("SetLocation", mock.Anything, "TRK-LOC-001", mock.AnythingOfType("domain.CurrentLocation")).Return(tracking, nil)

	ctx := context.Background()

	_, err := cached.FindByNumber(ctx, "TRK-LOC-001")
	require.NoError(t, err)
	assert.True(t, mr.Exists("tracking:TRK-LOC-001"))

	_, err = cached.SetLocation(ctx, "TRK-LOC-001", domain.CurrentLocation{Latitude: 6.9, Longitude: 79.8, Timestamp: time.Now().UTC()})
	require.NoError(t, err)
	assert.False(t, mr.Exists("tracking:TRK-LOC-001"))
}
