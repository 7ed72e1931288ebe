package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sparrow-parcel/internal/features/parcels/domain"
	"sparrow-parcel/internal/features/parcels/ports"

	directoryports "sparrow-parcel/internal/features/directory/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const parcelsCollection = "parcels"

// MongoParcelRepository implements ports.ParcelRepository.
type MongoParcelRepository struct {
	db        *mongo.Database
	directory directoryports.UserDirectory
	warehouse directoryports.WarehouseDirectory
}

// NewMongoParcelRepository creates a new MongoParcelRepository.
func NewMongoParcelRepository(db *mongo.Database, users directoryports.UserDirectory, warehouses directoryports.WarehouseDirectory) *MongoParcelRepository {
	return &MongoParcelRepository{db: db, directory: users, warehouse: warehouses}
}

func (r *MongoParcelRepository) collection() *mongo.Collection {
	return r.db.Collection(parcelsCollection)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

// Insert stores a new parcel and stamps its timestamps.
func (r *MongoParcelRepository) Insert(ctx context.Context, parcel *domain.Parcel) error {
	now := time.Now().UTC()
	if parcel.ID.IsZero() {
		parcel.ID = primitive.NewObjectID()
	}
	parcel.CreatedAt = now
	parcel.UpdatedAt = now

	if _, err := r.collection().InsertOne(ctx, parcel); err != nil {
		return fmt.Errorf("failed to insert parcel: %w", err)
	}
	return nil
}

// Find lists parcels matching the filter, newest first.
func (r *MongoParcelRepository) Find(ctx context.Context, filter ports.Filter) ([]*domain.Parcel, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.WarehouseID != "" {
		oid, err := parseID(filter.WarehouseID)
		if err != nil {
			return []*domain.Parcel{}, nil
		}
		query["warehouseId"] = oid
	}
	if filter.DriverID != "" {
		oid, err := parseID(filter.DriverID)
		if err != nil {
			return []*domain.Parcel{}, nil
		}
		query["assignedDriver"] = oid
	}
	if filter.PricingID != "" {
		oid, err := parseID(filter.PricingID)
		if err != nil {
			return []*domain.Parcel{}, nil
		}
		query["pricingId"] = oid
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdTimestamp", Value: -1}})
	cursor, err := r.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find parcels: %w", err)
	}
	defer cursor.Close(ctx)

	var parcels []*domain.Parcel
	if err := cursor.All(ctx, &parcels); err != nil {
		return nil, fmt.Errorf("failed to decode parcels: %w", err)
	}

	for _, p := range parcels {
		r.populate(ctx, p)
	}
	return parcels, nil
}

// FindByID fetches one parcel with its references populated.
func (r *MongoParcelRepository) FindByID(ctx context.Context, id string) (*domain.Parcel, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByTrackingNumber fetches one parcel by its unique tracking number.
func (r *MongoParcelRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Parcel, error) {
	return r.findOne(ctx, bson.M{"trackingNumber": trackingNumber})
}

func (r *MongoParcelRepository) findOne(ctx context.Context, query bson.M) (*domain.Parcel, error) {
	var parcel domain.Parcel
	err := r.collection().FindOne(ctx, query).Decode(&parcel)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find parcel: %w", err)
	}
	r.populate(ctx, &parcel)
	return &parcel, nil
}

// Update applies a partial field update and returns the new document.
func (r *MongoParcelRepository) Update(ctx context.Context, id string, update ports.Update) (*domain.Parcel, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedTimestamp": time.Now().UTC()}
	if update.TrackingNumber != nil {
		set["trackingNumber"] = *update.TrackingNumber
	}
	if update.Weight != nil {
		set["weight"] = *update.Weight
	}
	if update.Sender != nil {
		set["sender"] = *update.Sender
	}
	if update.Receiver != nil {
		set["receiver"] = *update.Receiver
	}
	if update.WarehouseID != nil {
		woid, err := parseID(*update.WarehouseID)
		if err != nil {
			return nil, err
		}
		set["warehouseId"] = woid
	}
	if update.PricingID != nil {
		poid, err := parseID(*update.PricingID)
		if err != nil {
			return nil, err
		}
		set["pricingId"] = poid
	}

	return r.findOneAndUpdate(ctx, oid, bson.M{"$set": set})
}

// SetStatus updates the status and appends a history entry.
func (r *MongoParcelRepository) SetStatus(ctx context.Context, id string, status domain.Status, entry domain.StatusHistoryEntry) (*domain.Parcel, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$set":  bson.M{"status": status, "updatedTimestamp": time.Now().UTC()},
		"$push": bson.M{"statusHistory": entry},
	}
	return r.findOneAndUpdate(ctx, oid, update)
}

// AssignDriver sets the assigned driver, the assigned_to_driver status and a history entry.
func (r *MongoParcelRepository) AssignDriver(ctx context.Context, id, driverID string, entry domain.StatusHistoryEntry) (*domain.Parcel, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	doid, err := parseID(driverID)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$set": bson.M{
			"assignedDriver":   doid,
			"status":           domain.StatusAssignedToDriver,
			"updatedTimestamp": time.Now().UTC(),
		},
		"$push": bson.M{"statusHistory": entry},
	}
	return r.findOneAndUpdate(ctx, oid, update)
}

// Delete removes a parcel and returns the removed document.
func (r *MongoParcelRepository) Delete(ctx context.Context, id string) (*domain.Parcel, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var parcel domain.Parcel
	err = r.collection().FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&parcel)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete parcel: %w", err)
	}
	return &parcel, nil
}

func (r *MongoParcelRepository) findOneAndUpdate(ctx context.Context, oid primitive.ObjectID, update bson.M) (*domain.Parcel, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var parcel domain.Parcel
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&parcel)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update parcel: %w", err)
	}
	r.populate(ctx, &parcel)
	return &parcel, nil
}

// populate joins the warehouse and driver references, best-effort.
func (r *MongoParcelRepository) populate(ctx context.Context, parcel *domain.Parcel) {
	if parcel.WarehouseID != nil && r.warehouse != nil {
		if wh, err := r.warehouse.FindWarehouseByID(ctx, parcel.WarehouseID.Hex()); err == nil {
			parcel.Warehouse = wh
		}
	}
	if parcel.AssignedDriver != nil && r.directory != nil {
		if u, err := r.directory.FindUserByID(ctx, parcel.AssignedDriver.Hex()); err == nil {
			parcel.Driver = u
		}
	}
}
