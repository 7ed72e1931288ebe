package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sparrow-parcel/internal/core/logger"
	"sparrow-parcel/internal/features/consolidations/domain"
	"sparrow-parcel/internal/features/consolidations/ports"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"
	parcelports "sparrow-parcel/internal/features/parcels/ports"
)

const serviceName = "consolidation-service"

// ConsolidationServiceImpl implements ports.ConsolidationService.
type ConsolidationServiceImpl struct {
	repo    ports.ConsolidationRepository
	parcels parcelports.ParcelRepository
}

// NewConsolidationService creates a new ConsolidationServiceImpl.
func NewConsolidationService(repo ports.ConsolidationRepository, parcels parcelports.ParcelRepository) *ConsolidationServiceImpl {
	return &ConsolidationServiceImpl{repo: repo, parcels: parcels}
}

// Create stores a new consolidation and marks its member parcels consolidated.
func (s *ConsolidationServiceImpl) Create(ctx context.Context, consolidation *domain.Consolidation) (*domain.Consolidation, error) {
	if len(consolidation.ParcelIDs) == 0 {
		return nil, domain.ErrNoParcels
	}

	if consolidation.ReferenceCode == "" {
		consolidation.ReferenceCode = domain.NewReferenceCode()
	}
	if consolidation.MasterTrackingNumber == "" {
		consolidation.MasterTrackingNumber = domain.NewMasterTrackingNumber()
	}
	if consolidation.Status == "" {
		consolidation.Status = domain.StatusPending
	}

	consolidation.StatusHistory = append(consolidation.StatusHistory, domain.StatusHistoryEntry{
		Status:    consolidation.Status,
		Timestamp: time.Now().UTC(),
		Note:      fmt.Sprintf("Consolidation created with %d parcel(s)", len(consolidation.ParcelIDs)),
	})

	if err := s.repo.Insert(ctx, consolidation); err != nil {
		return nil, fmt.Errorf("service: failed to create consolidation: %w", err)
	}

	// Mark member parcels. Failures here do not roll back the consolidation.
	entry := parceldomain.StatusHistoryEntry{
		Status:    parceldomain.StatusConsolidated,
		Service:   serviceName,
		Timestamp: time.Now().UTC(),
		Note:      fmt.Sprintf("Added to consolidation %s", consolidation.ReferenceCode),
	}
	for _, parcelID := range consolidation.ParcelIDs {
		if _, err := s.parcels.SetStatus(ctx, parcelID.Hex(), parceldomain.StatusConsolidated, entry); err != nil {
			logger.Get().Warn("failed to mark parcel consolidated",
				zap.String("service", serviceName),
				zap.String("parcelId", parcelID.Hex()),
				zap.Error(err))
		}
	}

	return consolidation, nil
}

// List returns consolidations matching the filter.
func (s *ConsolidationServiceImpl) List(ctx context.Context, filter ports.Filter) ([]*domain.Consolidation, error) {
	return s.repo.Find(ctx, filter)
}

// Get returns one consolidation with its parcels populated.
func (s *ConsolidationServiceImpl) Get(ctx context.Context, id string) (*domain.Consolidation, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateStatus sets a new status and appends it to the history log.
func (s *ConsolidationServiceImpl) UpdateStatus(ctx context.Context, id string, status domain.Status, note string) (*domain.Consolidation, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	entry := domain.StatusHistoryEntry{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Note:      note,
	}
	return s.repo.SetStatus(ctx, id, status, entry)
}

// Delete removes a consolidation.
func (s *ConsolidationServiceImpl) Delete(ctx context.Context, id string) (*domain.Consolidation, error) {
	return s.repo.Delete(ctx, id)
}
