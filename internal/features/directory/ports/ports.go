package ports

import (
	"context"

	"sparrow-parcel/internal/features/directory/domain"
)

// UserDirectory is the secondary port for user lookups.
// Lookups return (nil, nil) when no record matches.
type UserDirectory interface {
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
}

// WarehouseDirectory is the secondary port for warehouse lookups.
type WarehouseDirectory interface {
	FindWarehouseByID(ctx context.Context, id string) (*domain.Warehouse, error)
}
