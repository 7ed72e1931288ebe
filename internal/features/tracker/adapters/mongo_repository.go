package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sparrow-parcel/internal/features/tracker/domain"
	"sparrow-parcel/internal/features/tracker/ports"

	directoryports "sparrow-parcel/internal/features/directory/ports"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	trackerCollection = "tracker_events"
	parcelsCollection = "parcels"
)

// MongoTrackerRepository implements ports.TrackerRepository.
type MongoTrackerRepository struct {
	db        *mongo.Database
	directory directoryports.UserDirectory
}

// NewMongoTrackerRepository creates a new MongoTrackerRepository.
func NewMongoTrackerRepository(db *mongo.Database, users directoryports.UserDirectory) *MongoTrackerRepository {
	return &MongoTrackerRepository{db: db, directory: users}
}

func (r *MongoTrackerRepository) collection() *mongo.Collection {
	return r.db.Collection(trackerCollection)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

// Insert stores a new tracker event.
func (r *MongoTrackerRepository) Insert(ctx context.Context, event *domain.Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if _, err := r.collection().InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert tracker event: %w", err)
	}
	return nil
}

// Find lists events matching the filter, newest first.
func (r *MongoTrackerRepository) Find(ctx context.Context, filter ports.Filter) ([]*domain.Event, error) {
	query := bson.M{}
	if filter.ParcelID != "" {
		oid, err := primitive.ObjectIDFromHex(filter.ParcelID)
		if err != nil {
			return []*domain.Event{}, nil
		}
		query["parcelId"] = oid
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Location != "" {
		query["location"] = filter.Location
	}
	return r.findMany(ctx, query)
}

// FindByID fetches one event with its references populated.
func (r *MongoTrackerRepository) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var event domain.Event
	err = r.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tracker event: %w", err)
	}
	r.populate(ctx, &event)
	return &event, nil
}

// FindByParcel lists a parcel's events, newest first.
func (r *MongoTrackerRepository) FindByParcel(ctx context.Context, parcelID string) ([]*domain.Event, error) {
	oid, err := primitive.ObjectIDFromHex(parcelID)
	if err != nil {
		return []*domain.Event{}, nil
	}
	return r.findMany(ctx, bson.M{"parcelId": oid})
}

// FindLatestByParcel returns the most recent event for a parcel.
func (r *MongoTrackerRepository) FindLatestByParcel(ctx context.Context, parcelID string) (*domain.Event, error) {
	oid, err := parseID(parcelID)
	if err != nil {
		return nil, err
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	var event domain.Event
	err = r.collection().FindOne(ctx, bson.M{"parcelId": oid}, opts).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest tracker event: %w", err)
	}
	r.populate(ctx, &event)
	return &event, nil
}

// Update applies the non-nil fields of the update.
func (r *MongoTrackerRepository) Update(ctx context.Context, id string, update ports.Update) (*domain.Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.Location != nil {
		set["location"] = *update.Location
	}
	if update.Note != nil {
		set["note"] = *update.Note
	}
	if update.Timestamp != nil {
		set["timestamp"] = *update.Timestamp
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var event domain.Event
	err = r.collection().FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update tracker event: %w", err)
	}
	r.populate(ctx, &event)
	return &event, nil
}

// Delete removes an event and returns the removed document.
func (r *MongoTrackerRepository) Delete(ctx context.Context, id string) (*domain.Event, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var event domain.Event
	err = r.collection().FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete tracker event: %w", err)
	}
	return &event, nil
}

func (r *MongoTrackerRepository) findMany(ctx context.Context, query bson.M) ([]*domain.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := r.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find tracker events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*domain.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode tracker events: %w", err)
	}

	for _, e := range events {
		r.populate(ctx, e)
	}
	return events, nil
}

// populate joins the parcel and user references, best-effort.
func (r *MongoTrackerRepository) populate(ctx context.Context, event *domain.Event) {
	var parcel parceldomain.Parcel
	if err := r.db.Collection(parcelsCollection).
		FindOne(ctx, bson.M{"_id": event.ParcelID}).Decode(&parcel); err == nil {
		event.Parcel = &parcel
	}
	if event.UpdatedBy != nil && r.directory != nil {
		if u, err := r.directory.FindUserByID(ctx, event.UpdatedBy.Hex()); err == nil {
			event.User = u
		}
	}
}
