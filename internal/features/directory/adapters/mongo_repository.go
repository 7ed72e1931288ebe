package adapters

import (
	"context"
	"errors"
	"fmt"

	"sparrow-parcel/internal/features/directory/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	usersCollection      = "users"
	warehousesCollection = "warehouses"
)

// MongoDirectory implements the user and warehouse directory ports over the
// collections owned by the user and warehouse services.
type MongoDirectory struct {
	db *mongo.Database
}

// NewMongoDirectory creates a new MongoDirectory.
func NewMongoDirectory(db *mongo.Database) *MongoDirectory {
	return &MongoDirectory{db: db}
}

// FindUserByID looks up a user by its hex ID. Returns (nil, nil) on a miss.
func (d *MongoDirectory) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var user domain.User
	err = d.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", id, err)
	}
	return &user, nil
}

// FindWarehouseByID looks up a warehouse by its hex ID. Returns (nil, nil) on a miss.
func (d *MongoDirectory) FindWarehouseByID(ctx context.Context, id string) (*domain.Warehouse, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var warehouse domain.Warehouse
	err = d.db.Collection(warehousesCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&warehouse)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find warehouse %s: %w", id, err)
	}
	return &warehouse, nil
}
