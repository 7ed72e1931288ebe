package service

import (
	"context"
	"errors"
	"time"

	"sparrow-parcel/internal/features/tracker/domain"
	"sparrow-parcel/internal/features/tracker/ports"

	parceldomain "sparrow-parcel/internal/features/parcels/domain"
	parcelports "sparrow-parcel/internal/features/parcels/ports"
)

const serviceName = "tracker-service"

// TrackerServiceImpl implements ports.TrackerService.
type TrackerServiceImpl struct {
	repo    ports.TrackerRepository
	parcels parcelports.ParcelRepository
}

// NewTrackerService creates a new TrackerServiceImpl.
func NewTrackerService(repo ports.TrackerRepository, parcels parcelports.ParcelRepository) *TrackerServiceImpl {
	return &TrackerServiceImpl{repo: repo, parcels: parcels}
}

// Create records a scan event and pushes its status onto the parcel's status
// history. A scan against an unknown parcel is still recorded.
func (s *TrackerServiceImpl) Create(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	if !event.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		return nil, err
	}

	entry := parceldomain.StatusHistoryEntry{
		Status:    parceldomain.Status(event.Status),
		Service:   serviceName,
		Location:  event.Location,
		Timestamp: event.Timestamp,
		Note:      event.Note,
	}
	if _, err := s.parcels.SetStatus(ctx, event.ParcelID.Hex(), parceldomain.Status(event.Status), entry); err != nil {
		if !errors.Is(err, parceldomain.ErrNotFound) {
			return nil, err
		}
	}
	return event, nil
}

// List returns events matching the filter.
func (s *TrackerServiceImpl) List(ctx context.Context, filter ports.Filter) ([]*domain.Event, error) {
	return s.repo.Find(ctx, filter)
}

// Get returns one event by ID.
func (s *TrackerServiceImpl) Get(ctx context.Context, id string) (*domain.Event, error) {
	return s.repo.FindByID(ctx, id)
}

// ByParcel returns a parcel's full scan history.
func (s *TrackerServiceImpl) ByParcel(ctx context.Context, parcelID string) ([]*domain.Event, error) {
	return s.repo.FindByParcel(ctx, parcelID)
}

// LatestByParcel returns a parcel's most recent scan.
func (s *TrackerServiceImpl) LatestByParcel(ctx context.Context, parcelID string) (*domain.Event, error) {
	return s.repo.FindLatestByParcel(ctx, parcelID)
}

// ByStatus returns all events that recorded the given status.
func (s *TrackerServiceImpl) ByStatus(ctx context.Context, status domain.Status) ([]*domain.Event, error) {
	return s.repo.Find(ctx, ports.Filter{Status: status})
}

// Update edits a recorded event. The parcel's history is not rewritten.
func (s *TrackerServiceImpl) Update(ctx context.Context, id string, update ports.Update) (*domain.Event, error) {
	if update.Status != nil && !update.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	return s.repo.Update(ctx, id, update)
}

// Delete removes a recorded event.
func (s *TrackerServiceImpl) Delete(ctx context.Context, id string) (*domain.Event, error) {
	return s.repo.Delete(ctx, id)
}
