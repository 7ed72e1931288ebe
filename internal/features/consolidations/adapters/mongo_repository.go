package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sparrow-parcel/internal/features/consolidations/domain"
	"sparrow-parcel/internal/features/consolidations/ports"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	consolidationsCollection = "consolidations"
	parcelsCollection        = "parcels"
)

// MongoConsolidationRepository implements ports.ConsolidationRepository.
type MongoConsolidationRepository struct {
	db *mongo.Database
}

// NewMongoConsolidationRepository creates a new MongoConsolidationRepository.
func NewMongoConsolidationRepository(db *mongo.Database) *MongoConsolidationRepository {
	return &MongoConsolidationRepository{db: db}
}

func (r *MongoConsolidationRepository) collection() *mongo.Collection {
	return r.db.Collection(consolidationsCollection)
}

// Insert stores a new consolidation.
func (r *MongoConsolidationRepository) Insert(ctx context.Context, consolidation *domain.Consolidation) error {
	now := time.Now().UTC()
	if consolidation.ID.IsZero() {
		consolidation.ID = primitive.NewObjectID()
	}
	consolidation.CreatedAt = now
	consolidation.UpdatedAt = now

	if _, err := r.collection().InsertOne(ctx, consolidation); err != nil {
		return fmt.Errorf("failed to insert consolidation: %w", err)
	}
	return nil
}

// Find lists consolidations matching the filter, newest first.
func (r *MongoConsolidationRepository) Find(ctx context.Context, filter ports.Filter) ([]*domain.Consolidation, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.WarehouseID != "" {
		oid, err := primitive.ObjectIDFromHex(filter.WarehouseID)
		if err != nil {
			return []*domain.Consolidation{}, nil
		}
		query["warehouseId"] = oid
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdTimestamp", Value: -1}})
	cursor, err := r.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find consolidations: %w", err)
	}
	defer cursor.Close(ctx)

	var consolidations []*domain.Consolidation
	if err := cursor.All(ctx, &consolidations); err != nil {
		return nil, fmt.Errorf("failed to decode consolidations: %w", err)
	}
	return consolidations, nil
}

// FindByID fetches one consolidation with its member parcels populated.
func (r *MongoConsolidationRepository) FindByID(ctx context.Context, id string) (*domain.Consolidation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var consolidation domain.Consolidation
	err = r.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(&consolidation)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find consolidation: %w", err)
	}

	if err := r.populateParcels(ctx, &consolidation); err != nil {
		return nil, err
	}
	return &consolidation, nil
}

// SetStatus updates the status and appends a history entry.
func (r *MongoConsolidationRepository) SetStatus(ctx context.Context, id string, status domain.Status, entry domain.StatusHistoryEntry) (*domain.Consolidation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	update := bson.M{
		"$set":  bson.M{"status": status, "updatedTimestamp": time.Now().UTC()},
		"$push": bson.M{"statusHistory": entry},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var consolidation domain.Consolidation
	err = r.collection().FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&consolidation)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update consolidation: %w", err)
	}
	return &consolidation, nil
}

// Delete removes a consolidation and returns the removed document.
func (r *MongoConsolidationRepository) Delete(ctx context.Context, id string) (*domain.Consolidation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var consolidation domain.Consolidation
	err = r.collection().FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&consolidation)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete consolidation: %w", err)
	}
	return &consolidation, nil
}

func (r *MongoConsolidationRepository) populateParcels(ctx context.Context, consolidation *domain.Consolidation) error {
	if len(consolidation.ParcelIDs) == 0 {
		return nil
	}

	cursor, err := r.db.Collection(parcelsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": consolidation.ParcelIDs}})
	if err != nil {
		return fmt.Errorf("failed to populate consolidation parcels: %w", err)
	}
	defer cursor.Close(ctx)

	var parcels []*parceldomain.Parcel
	if err := cursor.All(ctx, &parcels); err != nil {
		return fmt.Errorf("failed to decode consolidation parcels: %w", err)
	}
	consolidation.Parcels = parcels
	return nil
}
