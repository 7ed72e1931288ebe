package ports

import (
	"context"

	"sparrow-parcel/internal/features/consolidations/domain"
)

// Filter narrows consolidation listings. Zero-value fields are ignored.
type Filter struct {
	Status      domain.Status
	WarehouseID string
}

// ConsolidationRepository is the secondary port for consolidation persistence.
type ConsolidationRepository interface {
	Insert(ctx context.Context, consolidation *domain.Consolidation) error
	Find(ctx context.Context, filter Filter) ([]*domain.Consolidation, error)
	// FindByID returns the consolidation with its member parcels populated.
	FindByID(ctx context.Context, id string) (*domain.Consolidation, error)
	SetStatus(ctx context.Context, id string, status domain.Status, entry domain.StatusHistoryEntry) (*domain.Consolidation, error)
	Delete(ctx context.Context, id string) (*domain.Consolidation, error)
}

// ConsolidationService is the primary port for consolidation operations.
type ConsolidationService interface {
	Create(ctx context.Context, consolidation *domain.Consolidation) (*domain.Consolidation, error)
	List(ctx context.Context, filter Filter) ([]*domain.Consolidation, error)
	Get(ctx context.Context, id string) (*domain.Consolidation, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status, note string) (*domain.Consolidation, error)
	Delete(ctx context.Context, id string) (*domain.Consolidation, error)
}
