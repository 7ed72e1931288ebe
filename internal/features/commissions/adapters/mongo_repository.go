package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sparrow-parcel/internal/features/commissions/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const settingsCollection = "commission_settings"

// MongoSettingsRepository implements ports.SettingsRepository.
type MongoSettingsRepository struct {
	db *mongo.Database
}

// NewMongoSettingsRepository creates a new MongoSettingsRepository.
func NewMongoSettingsRepository(db *mongo.Database) *MongoSettingsRepository {
	return &MongoSettingsRepository{db: db}
}

func (r *MongoSettingsRepository) collection() *mongo.Collection {
	return r.db.Collection(settingsCollection)
}

// Upsert creates or replaces the row keyed by the settings' delivery type.
func (r *MongoSettingsRepository) Upsert(ctx context.Context, settings *domain.Settings) (*domain.Settings, error) {
	now := time.Now().UTC()

	set := bson.M{
		"deliveryType":        settings.DeliveryType,
		"commissionRate":      settings.CommissionRate,
		"baseAmount":          settings.BaseAmount,
		"urgentDeliveryBonus": settings.UrgentDeliveryBonus,
		"description":         settings.Description,
		"isActive":            settings.IsActive,
		"updatedTimestamp":    now,
	}
	if settings.UpdatedBy != nil {
		set["updatedBy"] = settings.UpdatedBy
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "createdTimestamp": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved domain.Settings
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"deliveryType": settings.DeliveryType}, update, opts).Decode(&saved)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert commission settings: %w", err)
	}
	return &saved, nil
}

// FindAll lists every settings row ordered by delivery type.
func (r *MongoSettingsRepository) FindAll(ctx context.Context) ([]*domain.Settings, error) {
	opts := options.Find().SetSort(bson.D{{Key: "deliveryType", Value: 1}})
	cursor, err := r.collection().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find commission settings: %w", err)
	}
	defer cursor.Close(ctx)

	var settings []*domain.Settings
	if err := cursor.All(ctx, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode commission settings: %w", err)
	}
	return settings, nil
}

// FindActiveByType returns the active row for a type, or (nil, nil) on a miss.
func (r *MongoSettingsRepository) FindActiveByType(ctx context.Context, deliveryType string) (*domain.Settings, error) {
	return r.findOne(ctx, bson.M{"deliveryType": deliveryType, "isActive": true})
}

// FindByType returns the row for a type regardless of active flag, or (nil, nil).
func (r *MongoSettingsRepository) FindByType(ctx context.Context, deliveryType string) (*domain.Settings, error) {
	return r.findOne(ctx, bson.M{"deliveryType": deliveryType})
}

func (r *MongoSettingsRepository) findOne(ctx context.Context, query bson.M) (*domain.Settings, error) {
	var settings domain.Settings
	err := r.collection().FindOne(ctx, query).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find commission settings: %w", err)
	}
	return &settings, nil
}

// UpdateByType applies new values to the row for a type.
func (r *MongoSettingsRepository) UpdateByType(ctx context.Context, deliveryType string, settings *domain.Settings) (*domain.Settings, error) {
	set := bson.M{
		"commissionRate":      settings.CommissionRate,
		"baseAmount":          settings.BaseAmount,
		"urgentDeliveryBonus": settings.UrgentDeliveryBonus,
		"description":         settings.Description,
		"isActive":            settings.IsActive,
		"updatedTimestamp":    time.Now().UTC(),
	}
	if settings.UpdatedBy != nil {
		set["updatedBy"] = settings.UpdatedBy
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var saved domain.Settings
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"deliveryType": deliveryType}, bson.M{"$set": set}, opts).Decode(&saved)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update commission settings: %w", err)
	}
	return &saved, nil
}

// DeleteByType removes the row for a type.
func (r *MongoSettingsRepository) DeleteByType(ctx context.Context, deliveryType string) (*domain.Settings, error) {
	var settings domain.Settings
	err := r.collection().FindOneAndDelete(ctx, bson.M{"deliveryType": deliveryType}).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete commission settings: %w", err)
	}
	return &settings, nil
}

// InsertIfAbsent seeds a row only when no row exists for its type.
func (r *MongoSettingsRepository) InsertIfAbsent(ctx context.Context, settings domain.Settings) error {
	now := time.Now().UTC()
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":                 primitive.NewObjectID(),
			"deliveryType":        settings.DeliveryType,
			"commissionRate":      settings.CommissionRate,
			"baseAmount":          settings.BaseAmount,
			"urgentDeliveryBonus": settings.UrgentDeliveryBonus,
			"description":         settings.Description,
			"isActive":            settings.IsActive,
			"createdTimestamp":    now,
			"updatedTimestamp":    now,
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection().UpdateOne(ctx, bson.M{"deliveryType": settings.DeliveryType}, update, opts); err != nil {
		return fmt.Errorf("failed to seed commission settings %s: %w", settings.DeliveryType, err)
	}
	return nil
}
