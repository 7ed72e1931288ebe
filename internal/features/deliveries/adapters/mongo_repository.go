package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sparrow-parcel/internal/features/deliveries/domain"
	"sparrow-parcel/internal/features/deliveries/ports"

	consolidationdomain "sparrow-parcel/internal/features/consolidations/domain"
	directoryports "sparrow-parcel/internal/features/directory/ports"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	deliveriesCollection     = "deliveries"
	parcelsCollection        = "parcels"
	consolidationsCollection = "consolidations"
)

// MongoDeliveryRepository implements ports.DeliveryRepository. Item fan-out
// writes go straight to the parcels and consolidations collections so a
// delivery transition and its item updates live in one place.
type MongoDeliveryRepository struct {
	db        *mongo.Database
	directory directoryports.UserDirectory
	warehouse directoryports.WarehouseDirectory
}

// NewMongoDeliveryRepository creates a new MongoDeliveryRepository.
func NewMongoDeliveryRepository(db *mongo.Database, users directoryports.UserDirectory, warehouses directoryports.WarehouseDirectory) *MongoDeliveryRepository {
	return &MongoDeliveryRepository{db: db, directory: users, warehouse: warehouses}
}

func (r *MongoDeliveryRepository) collection() *mongo.Collection {
	return r.db.Collection(deliveriesCollection)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

// Insert stores a new delivery and stamps its timestamps.
func (r *MongoDeliveryRepository) Insert(ctx context.Context, delivery *domain.Delivery) error {
	now := time.Now().UTC()
	if delivery.ID.IsZero() {
		delivery.ID = primitive.NewObjectID()
	}
	delivery.CreatedAt = now
	delivery.UpdatedAt = now

	if _, err := r.collection().InsertOne(ctx, delivery); err != nil {
		return fmt.Errorf("failed to insert delivery: %w", err)
	}
	return nil
}

// Find lists deliveries matching the filter, newest first. A warehouse
// filter matches either route endpoint.
func (r *MongoDeliveryRepository) Find(ctx context.Context, filter ports.Filter) ([]*domain.Delivery, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.DeliveryType != "" {
		query["deliveryType"] = filter.DeliveryType
	}
	if filter.ItemType != "" {
		query["deliveryItemType"] = filter.ItemType
	}
	if filter.DriverID != "" {
		oid, err := parseID(filter.DriverID)
		if err != nil {
			return []*domain.Delivery{}, nil
		}
		query["assignedDriver"] = oid
	}
	if filter.ConsolidationID != "" {
		oid, err := parseID(filter.ConsolidationID)
		if err != nil {
			return []*domain.Delivery{}, nil
		}
		query["consolidation"] = oid
	}
	if filter.WarehouseID != "" {
		oid, err := parseID(filter.WarehouseID)
		if err != nil {
			return []*domain.Delivery{}, nil
		}
		query["$or"] = bson.A{
			bson.M{"fromLocation.warehouseId": oid},
			bson.M{"toLocation.warehouseId": oid},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdTimestamp", Value: -1}})
	cursor, err := r.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find deliveries: %w", err)
	}
	defer cursor.Close(ctx)

	var deliveries []*domain.Delivery
	if err := cursor.All(ctx, &deliveries); err != nil {
		return nil, fmt.Errorf("failed to decode deliveries: %w", err)
	}

	for _, d := range deliveries {
		r.populate(ctx, d)
	}
	return deliveries, nil
}

// FindByID fetches one delivery with its references populated.
func (r *MongoDeliveryRepository) FindByID(ctx context.Context, id string) (*domain.Delivery, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByNumber fetches one delivery by its delivery number.
func (r *MongoDeliveryRepository) FindByNumber(ctx context.Context, deliveryNumber string) (*domain.Delivery, error) {
	return r.findOne(ctx, bson.M{"deliveryNumber": deliveryNumber})
}

func (r *MongoDeliveryRepository) findOne(ctx context.Context, query bson.M) (*domain.Delivery, error) {
	var delivery domain.Delivery
	err := r.collection().FindOne(ctx, query).Decode(&delivery)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find delivery: %w", err)
	}
	r.populate(ctx, &delivery)
	return &delivery, nil
}

// Update applies a partial field update and returns the new document.
func (r *MongoDeliveryRepository) Update(ctx context.Context, id string, update ports.Update) (*domain.Delivery, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedTimestamp": time.Now().UTC()}
	if update.AssignedDriver != nil {
		doid, err := parseID(*update.AssignedDriver)
		if err != nil {
			return nil, err
		}
		set["assignedDriver"] = doid
	}
	if update.FromLocation != nil {
		set["fromLocation"] = *update.FromLocation
	}
	if update.ToLocation != nil {
		set["toLocation"] = *update.ToLocation
	}
	if update.Priority != nil {
		set["priority"] = *update.Priority
	}
	if update.EstimatedPickupTime != nil {
		set["estimatedPickupTime"] = *update.EstimatedPickupTime
	}
	if update.EstimatedDeliveryTime != nil {
		set["estimatedDeliveryTime"] = *update.EstimatedDeliveryTime
	}
	if update.Distance != nil {
		set["distance"] = *update.Distance
	}
	if update.DeliveryInstructions != nil {
		set["deliveryInstructions"] = *update.DeliveryInstructions
	}
	if update.RecipientSignature != nil {
		set["recipientSignature"] = *update.RecipientSignature
	}
	if update.DeliveryProof != nil {
		set["deliveryProof"] = *update.DeliveryProof
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}

	return r.findOneAndUpdate(ctx, oid, bson.M{"$set": set})
}

// ApplyStatus sets a new status, appends its history entry and stamps the
// actual pickup or delivery time when given.
func (r *MongoDeliveryRepository) ApplyStatus(ctx context.Context, id string, status domain.Status, entry domain.StatusHistoryEntry, pickupAt, deliveredAt *time.Time) (*domain.Delivery, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"status": status, "updatedTimestamp": time.Now().UTC()}
	if pickupAt != nil {
		set["actualPickupTime"] = *pickupAt
	}
	if deliveredAt != nil {
		set["actualDeliveryTime"] = *deliveredAt
	}

	update := bson.M{
		"$set":  set,
		"$push": bson.M{"statusHistory": entry},
	}
	return r.findOneAndUpdate(ctx, oid, update)
}

// SetDriver reassigns the delivery and appends a history entry.
func (r *MongoDeliveryRepository) SetDriver(ctx context.Context, id string, driverID primitive.ObjectID, entry domain.StatusHistoryEntry) (*domain.Delivery, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$set":  bson.M{"assignedDriver": driverID, "updatedTimestamp": time.Now().UTC()},
		"$push": bson.M{"statusHistory": entry},
	}
	return r.findOneAndUpdate(ctx, oid, update)
}

// Delete removes a delivery and returns the removed document.
func (r *MongoDeliveryRepository) Delete(ctx context.Context, id string) (*domain.Delivery, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var delivery domain.Delivery
	err = r.collection().FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&delivery)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete delivery: %w", err)
	}
	return &delivery, nil
}

// CountParcels counts how many of the given parcel IDs exist.
func (r *MongoDeliveryRepository) CountParcels(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	count, err := r.db.Collection(parcelsCollection).CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("failed to count parcels: %w", err)
	}
	return count, nil
}

// FindConsolidation fetches a consolidation with its member parcels, or
// (nil, nil) when it does not exist.
func (r *MongoDeliveryRepository) FindConsolidation(ctx context.Context, id primitive.ObjectID) (*consolidationdomain.Consolidation, error) {
	var consolidation consolidationdomain.Consolidation
	err := r.db.Collection(consolidationsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&consolidation)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find consolidation: %w", err)
	}

	parcels, err := r.findParcels(ctx, consolidation.ParcelIDs)
	if err != nil {
		return nil, err
	}
	consolidation.Parcels = parcels
	return &consolidation, nil
}

// AssignParcels sets the driver, status and optionally the destination
// warehouse on every parcel, pushing the same history entry to each.
func (r *MongoDeliveryRepository) AssignParcels(ctx context.Context, ids []primitive.ObjectID, driverID primitive.ObjectID, warehouseID *primitive.ObjectID, status parceldomain.Status, entry parceldomain.StatusHistoryEntry) error {
	set := bson.M{
		"status":           status,
		"assignedDriver":   driverID,
		"updatedTimestamp": time.Now().UTC(),
	}
	if warehouseID != nil {
		set["warehouseId"] = *warehouseID
	}

	update := bson.M{
		"$set":  set,
		"$push": bson.M{"statusHistory": entry},
	}
	if _, err := r.db.Collection(parcelsCollection).UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, update); err != nil {
		return fmt.Errorf("failed to assign parcels: %w", err)
	}
	return nil
}

// PushParcelStatus sets a status on every parcel and appends a history entry.
func (r *MongoDeliveryRepository) PushParcelStatus(ctx context.Context, ids []primitive.ObjectID, status parceldomain.Status, entry parceldomain.StatusHistoryEntry) error {
	update := bson.M{
		"$set":  bson.M{"status": status, "updatedTimestamp": time.Now().UTC()},
		"$push": bson.M{"statusHistory": entry},
	}
	if _, err := r.db.Collection(parcelsCollection).UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, update); err != nil {
		return fmt.Errorf("failed to update parcel statuses: %w", err)
	}
	return nil
}

// PushConsolidationStatus sets a status on the consolidation and appends a
// history entry.
func (r *MongoDeliveryRepository) PushConsolidationStatus(ctx context.Context, id primitive.ObjectID, status consolidationdomain.Status, entry consolidationdomain.StatusHistoryEntry) error {
	update := bson.M{
		"$set":  bson.M{"status": status, "updatedTimestamp": time.Now().UTC()},
		"$push": bson.M{"statusHistory": entry},
	}
	if _, err := r.db.Collection(consolidationsCollection).UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("failed to update consolidation status: %w", err)
	}
	return nil
}

func (r *MongoDeliveryRepository) findOneAndUpdate(ctx context.Context, oid primitive.ObjectID, update bson.M) (*domain.Delivery, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var delivery domain.Delivery
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&delivery)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update delivery: %w", err)
	}
	r.populate(ctx, &delivery)
	return &delivery, nil
}

func (r *MongoDeliveryRepository) findParcels(ctx context.Context, ids []primitive.ObjectID) ([]*parceldomain.Parcel, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := r.db.Collection(parcelsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find parcels: %w", err)
	}
	defer cursor.Close(ctx)

	var parcels []*parceldomain.Parcel
	if err := cursor.All(ctx, &parcels); err != nil {
		return nil, fmt.Errorf("failed to decode parcels: %w", err)
	}
	return parcels, nil
}

// populate joins the carried items, the driver, the staff user and the route
// warehouses, best-effort.
func (r *MongoDeliveryRepository) populate(ctx context.Context, delivery *domain.Delivery) {
	if len(delivery.ParcelIDs) > 0 {
		if parcels, err := r.findParcels(ctx, delivery.ParcelIDs); err == nil {
			delivery.Parcels = parcels
		}
	}
	if delivery.ConsolidationID != nil {
		if consolidation, err := r.FindConsolidation(ctx, *delivery.ConsolidationID); err == nil {
			delivery.Consolidation = consolidation
		}
	}
	if r.directory != nil {
		if u, err := r.directory.FindUserByID(ctx, delivery.AssignedDriver.Hex()); err == nil {
			delivery.Driver = u
		}
		if delivery.AssignedBy != nil {
			if u, err := r.directory.FindUserByID(ctx, delivery.AssignedBy.Hex()); err == nil {
				delivery.Staff = u
			}
		}
	}
	if r.warehouse != nil {
		if delivery.FromLocation.WarehouseID != nil {
			if wh, err := r.warehouse.FindWarehouseByID(ctx, delivery.FromLocation.WarehouseID.Hex()); err == nil {
				delivery.FromLocation.Warehouse = wh
			}
		}
		if delivery.ToLocation.WarehouseID != nil {
			if wh, err := r.warehouse.FindWarehouseByID(ctx, delivery.ToLocation.WarehouseID.Hex()); err == nil {
				delivery.ToLocation.Warehouse = wh
			}
		}
	}
}
