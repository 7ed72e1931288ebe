package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sparrow-parcel/internal/features/earnings/domain"
	"sparrow-parcel/internal/features/earnings/ports"

	deliveryports "sparrow-parcel/internal/features/deliveries/ports"
	directoryports "sparrow-parcel/internal/features/directory/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const earningsCollection = "earnings"

// MongoEarningsRepository implements ports.EarningsRepository.
type MongoEarningsRepository struct {
	db         *mongo.Database
	directory  directoryports.UserDirectory
	deliveries deliveryports.DeliveryRepository
}

// NewMongoEarningsRepository creates a new MongoEarningsRepository. deliveries
// is used to populate the delivery reference and may be nil.
func NewMongoEarningsRepository(db *mongo.Database, users directoryports.UserDirectory, deliveries deliveryports.DeliveryRepository) *MongoEarningsRepository {
	return &MongoEarningsRepository{db: db, directory: users, deliveries: deliveries}
}

func (r *MongoEarningsRepository) collection() *mongo.Collection {
	return r.db.Collection(earningsCollection)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

// Insert stores a new earnings record and stamps its timestamps.
func (r *MongoEarningsRepository) Insert(ctx context.Context, earnings *domain.Earnings) error {
	now := time.Now().UTC()
	if earnings.ID.IsZero() {
		earnings.ID = primitive.NewObjectID()
	}
	earnings.CreatedAt = now
	earnings.UpdatedAt = now

	if _, err := r.collection().InsertOne(ctx, earnings); err != nil {
		return fmt.Errorf("failed to insert earnings: %w", err)
	}
	return nil
}

// Find lists earnings matching the filter, most recently completed first.
func (r *MongoEarningsRepository) Find(ctx context.Context, filter ports.Filter) ([]*domain.Earnings, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.DriverID != "" {
		oid, err := parseID(filter.DriverID)
		if err != nil {
			return []*domain.Earnings{}, nil
		}
		query["driver"] = oid
	}
	return r.findMany(ctx, query)
}

// FindByID fetches one earnings record with its references populated.
func (r *MongoEarningsRepository) FindByID(ctx context.Context, id string) (*domain.Earnings, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var earnings domain.Earnings
	err = r.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(&earnings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find earnings: %w", err)
	}
	r.populate(ctx, &earnings)
	return &earnings, nil
}

// FindByDriver lists a driver's earnings within the filter window.
func (r *MongoEarningsRepository) FindByDriver(ctx context.Context, driverID string, filter ports.DriverFilter) ([]*domain.Earnings, error) {
	oid, err := parseID(driverID)
	if err != nil {
		return []*domain.Earnings{}, nil
	}

	query := bson.M{"driver": oid}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.StartDate != nil || filter.EndDate != nil {
		window := bson.M{}
		if filter.StartDate != nil {
			window["$gte"] = *filter.StartDate
		}
		if filter.EndDate != nil {
			window["$lte"] = *filter.EndDate
		}
		query["deliveryCompletedAt"] = window
	}
	return r.findMany(ctx, query)
}

// FindByDelivery returns the earnings record for a delivery, or (nil, nil)
// when none exists.
func (r *MongoEarningsRepository) FindByDelivery(ctx context.Context, deliveryID string) (*domain.Earnings, error) {
	oid, err := primitive.ObjectIDFromHex(deliveryID)
	if err != nil {
		return nil, nil
	}

	var earnings domain.Earnings
	err = r.collection().FindOne(ctx, bson.M{"delivery": oid}).Decode(&earnings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find earnings by delivery: %w", err)
	}
	return &earnings, nil
}

// Replace persists the full mutable state of an earnings record.
func (r *MongoEarningsRepository) Replace(ctx context.Context, earnings *domain.Earnings) (*domain.Earnings, error) {
	set := bson.M{
		"baseAmount":       earnings.BaseAmount,
		"commissionRate":   earnings.CommissionRate,
		"commissionAmount": earnings.CommissionAmount,
		"bonusAmount":      earnings.BonusAmount,
		"deductions":       earnings.Deductions,
		"totalEarnings":    earnings.TotalEarnings,
		"status":           earnings.Status,
		"notes":            earnings.Notes,
		"updatedTimestamp": time.Now().UTC(),
	}
	return r.findOneAndUpdate(ctx, earnings.ID, bson.M{"$set": set})
}

// SetStatus updates the payout status, stamping paidAt when given.
func (r *MongoEarningsRepository) SetStatus(ctx context.Context, id string, status domain.Status, notes string, paidAt *time.Time) (*domain.Earnings, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"status": status, "updatedTimestamp": time.Now().UTC()}
	if paidAt != nil {
		set["paidAt"] = *paidAt
	}
	if notes != "" {
		set["notes"] = notes
	}
	return r.findOneAndUpdate(ctx, oid, bson.M{"$set": set})
}

// Delete removes an earnings record and returns the removed document.
func (r *MongoEarningsRepository) Delete(ctx context.Context, id string) (*domain.Earnings, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var earnings domain.Earnings
	err = r.collection().FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&earnings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete earnings: %w", err)
	}
	return &earnings, nil
}

func (r *MongoEarningsRepository) findMany(ctx context.Context, query bson.M) ([]*domain.Earnings, error) {
	opts := options.Find().SetSort(bson.D{{Key: "deliveryCompletedAt", Value: -1}})
	cursor, err := r.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find earnings: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.Earnings
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode earnings: %w", err)
	}

	for _, e := range records {
		r.populate(ctx, e)
	}
	return records, nil
}

func (r *MongoEarningsRepository) findOneAndUpdate(ctx context.Context, oid primitive.ObjectID, update bson.M) (*domain.Earnings, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var earnings domain.Earnings
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&earnings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update earnings: %w", err)
	}
	r.populate(ctx, &earnings)
	return &earnings, nil
}

// populate joins the driver and delivery references, best-effort.
func (r *MongoEarningsRepository) populate(ctx context.Context, earnings *domain.Earnings) {
	if r.directory != nil {
		if u, err := r.directory.FindUserByID(ctx, earnings.DriverID.Hex()); err == nil {
			earnings.Driver = u
		}
	}
	if r.deliveries != nil {
		if d, err := r.deliveries.FindByID(ctx, earnings.DeliveryID.Hex()); err == nil {
			earnings.Delivery = d
		}
	}
}
