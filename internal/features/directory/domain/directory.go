package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// RoleDriver is the only role allowed to be assigned deliveries.
const RoleDriver = "Driver"

// WarehouseStatusActive marks a warehouse that may appear in delivery routes.
const WarehouseStatusActive = "active"

// User is a read-only view of a user record owned by the user service.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserName string             `bson:"userName" json:"userName"`
	EntityID string             `bson:"entityId,omitempty" json:"entityId,omitempty"`
	Role     string             `bson:"role" json:"role"`
}

// Warehouse is a read-only view of a warehouse record owned by the warehouse service.
type Warehouse struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name"`
	Code    string             `bson:"code,omitempty" json:"code,omitempty"`
	Address string             `bson:"address,omitempty" json:"address,omitempty"`
	Status  string             `bson:"status" json:"status"`
}

// IsDriver reports whether the user carries the driver role.
func (u *User) IsDriver() bool {
	return u != nil && u.Role == RoleDriver
}

// IsActive reports whether the warehouse can be used as a route endpoint.
func (w *Warehouse) IsActive() bool {
	return w != nil && w.Status == WarehouseStatusActive
}
