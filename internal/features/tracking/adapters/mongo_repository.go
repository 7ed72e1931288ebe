package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sparrow-parcel/internal/features/tracking/domain"

	consolidationdomain "sparrow-parcel/internal/features/consolidations/domain"
	directoryports "sparrow-parcel/internal/features/directory/ports"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	trackingCollection       = "tracking"
	parcelsCollection        = "parcels"
	consolidationsCollection = "consolidations"
)

// MongoTrackingRepository implements ports.TrackingRepository.
type MongoTrackingRepository struct {
	db        *mongo.Database
	directory directoryports.UserDirectory
}

// NewMongoTrackingRepository creates a new MongoTrackingRepository.
func NewMongoTrackingRepository(db *mongo.Database, users directoryports.UserDirectory) *MongoTrackingRepository {
	return &MongoTrackingRepository{db: db, directory: users}
}

func (r *MongoTrackingRepository) collection() *mongo.Collection {
	return r.db.Collection(trackingCollection)
}

// Insert stores a new tracking record and stamps its timestamps.
func (r *MongoTrackingRepository) Insert(ctx context.Context, tracking *domain.Tracking) error {
	now := time.Now().UTC()
	if tracking.ID.IsZero() {
		tracking.ID = primitive.NewObjectID()
	}
	tracking.CreatedAt = now
	tracking.UpdatedAt = now

	if _, err := r.collection().InsertOne(ctx, tracking); err != nil {
		return fmt.Errorf("failed to insert tracking: %w", err)
	}
	return nil
}

// FindByNumber fetches one tracking record with its references populated, or
// (nil, nil) when the number is unknown.
func (r *MongoTrackingRepository) FindByNumber(ctx context.Context, trackingNumber string) (*domain.Tracking, error) {
	var tracking domain.Tracking
	err := r.collection().FindOne(ctx, bson.M{"trackingNumber": trackingNumber}).Decode(&tracking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tracking: %w", err)
	}
	r.populate(ctx, &tracking)
	return &tracking, nil
}

// FindActive lists shipments in transit or out for delivery.
func (r *MongoTrackingRepository) FindActive(ctx context.Context) ([]*domain.Tracking, error) {
	return r.findMany(ctx, bson.M{"currentStatus": bson.M{"$in": domain.ActiveStatuses}})
}

// FindByDriver lists the shipments currently assigned to a driver.
func (r *MongoTrackingRepository) FindByDriver(ctx context.Context, driverID string) ([]*domain.Tracking, error) {
	oid, err := primitive.ObjectIDFromHex(driverID)
	if err != nil {
		return []*domain.Tracking{}, nil
	}
	return r.findMany(ctx, bson.M{"assignedDriver": oid})
}

// AddEvent appends an event and promotes it to the current status and, when
// it carries one, the current location.
func (r *MongoTrackingRepository) AddEvent(ctx context.Context, trackingNumber string, event domain.Event) (*domain.Tracking, error) {
	set := bson.M{
		"currentStatus":    event.Status,
		"updatedTimestamp": time.Now().UTC(),
	}
	if event.Location != nil {
		set["currentLocation"] = domain.CurrentLocation{
			Latitude:  event.Location.Latitude,
			Longitude: event.Location.Longitude,
			Address:   event.Location.Address,
			Timestamp: event.Timestamp,
		}
	}
	update := bson.M{"$set": set, "$push": bson.M{"events": event}}
	return r.findOneAndUpdate(ctx, trackingNumber, update)
}

// SetLocation overwrites the current location without logging an event.
func (r *MongoTrackingRepository) SetLocation(ctx context.Context, trackingNumber string, location domain.CurrentLocation) (*domain.Tracking, error) {
	update := bson.M{"$set": bson.M{
		"currentLocation":  location,
		"updatedTimestamp": time.Now().UTC(),
	}}
	return r.findOneAndUpdate(ctx, trackingNumber, update)
}

func (r *MongoTrackingRepository) findMany(ctx context.Context, query bson.M) ([]*domain.Tracking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedTimestamp", Value: -1}})
	cursor, err := r.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find trackings: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.Tracking
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode trackings: %w", err)
	}

	for _, t := range records {
		r.populate(ctx, t)
	}
	return records, nil
}

func (r *MongoTrackingRepository) findOneAndUpdate(ctx context.Context, trackingNumber string, update bson.M) (*domain.Tracking, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var tracking domain.Tracking
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"trackingNumber": trackingNumber}, update, opts).Decode(&tracking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update tracking: %w", err)
	}
	r.populate(ctx, &tracking)
	return &tracking, nil
}

// populate joins the parcel, consolidation and driver references, best-effort.
func (r *MongoTrackingRepository) populate(ctx context.Context, tracking *domain.Tracking) {
	if tracking.ParcelID != nil {
		var parcel parceldomain.Parcel
		if err := r.db.Collection(parcelsCollection).
			FindOne(ctx, bson.M{"_id": *tracking.ParcelID}).Decode(&parcel); err == nil {
			tracking.Parcel = &parcel
		}
	}
	if tracking.ConsolidationID != nil {
		var consolidation consolidationdomain.Consolidation
		if err := r.db.Collection(consolidationsCollection).
			FindOne(ctx, bson.M{"_id": *tracking.ConsolidationID}).Decode(&consolidation); err == nil {
			tracking.Consolidation = &consolidation
		}
	}
	if tracking.AssignedDriver != nil && r.directory != nil {
		if u, err := r.directory.FindUserByID(ctx, tracking.AssignedDriver.Hex()); err == nil {
			tracking.Driver = u
		}
	}
}
