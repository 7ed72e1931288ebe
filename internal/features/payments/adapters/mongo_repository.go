package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sparrow-parcel/internal/features/payments/domain"
	"sparrow-parcel/internal/features/payments/ports"

	consolidationdomain "sparrow-parcel/internal/features/consolidations/domain"
	directoryports "sparrow-parcel/internal/features/directory/ports"
	invoicedomain "sparrow-parcel/internal/features/invoices/domain"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	paymentsCollection       = "payments"
	invoicesCollection       = "invoices"
	parcelsCollection        = "parcels"
	consolidationsCollection = "consolidations"
)

// MongoPaymentRepository implements ports.PaymentRepository.
type MongoPaymentRepository struct {
	db        *mongo.Database
	directory directoryports.UserDirectory
}

// NewMongoPaymentRepository creates a new MongoPaymentRepository.
func NewMongoPaymentRepository(db *mongo.Database, users directoryports.UserDirectory) *MongoPaymentRepository {
	return &MongoPaymentRepository{db: db, directory: users}
}

func (r *MongoPaymentRepository) collection() *mongo.Collection {
	return r.db.Collection(paymentsCollection)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

// Insert stores a new payment and stamps its timestamps.
func (r *MongoPaymentRepository) Insert(ctx context.Context, payment *domain.Payment) error {
	now := time.Now().UTC()
	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}
	payment.CreatedAt = now
	payment.UpdatedAt = now

	if _, err := r.collection().InsertOne(ctx, payment); err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// Find lists payments matching the filter, newest first.
func (r *MongoPaymentRepository) Find(ctx context.Context, filter ports.Filter) ([]*domain.Payment, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["paymentStatus"] = filter.Status
	}
	if filter.UserID != "" {
		oid, err := primitive.ObjectIDFromHex(filter.UserID)
		if err != nil {
			return []*domain.Payment{}, nil
		}
		query["user"] = oid
	}
	return r.findMany(ctx, query)
}

// FindByID fetches one payment with its references populated.
func (r *MongoPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var payment domain.Payment
	err = r.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(&payment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	r.populate(ctx, &payment)
	return &payment, nil
}

// FindByUser lists a user's payments, newest first.
func (r *MongoPaymentRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Payment, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []*domain.Payment{}, nil
	}
	return r.findMany(ctx, bson.M{"user": oid})
}

// Update applies the non-nil fields of the update.
func (r *MongoPaymentRepository) Update(ctx context.Context, id string, update ports.Update) (*domain.Payment, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Amount != nil {
		set["amount"] = *update.Amount
	}
	if update.Method != nil {
		set["paymentMethod"] = *update.Method
	}
	if update.Status != nil {
		set["paymentStatus"] = *update.Status
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}
	return r.findOneAndUpdate(ctx, oid, bson.M{"$set": set})
}

// SetInvoice links the generated invoice back to the payment.
func (r *MongoPaymentRepository) SetInvoice(ctx context.Context, id string, invoiceID primitive.ObjectID) (*domain.Payment, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOneAndUpdate(ctx, oid, bson.M{"$set": bson.M{
		"invoice":   invoiceID,
		"updatedAt": time.Now().UTC(),
	}})
}

// Delete removes a payment and returns the removed document.
func (r *MongoPaymentRepository) Delete(ctx context.Context, id string) (*domain.Payment, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var payment domain.Payment
	err = r.collection().FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&payment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete payment: %w", err)
	}
	return &payment, nil
}

func (r *MongoPaymentRepository) findMany(ctx context.Context, query bson.M) ([]*domain.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find payments: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []*domain.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}

	for _, p := range payments {
		r.populate(ctx, p)
	}
	return payments, nil
}

func (r *MongoPaymentRepository) findOneAndUpdate(ctx context.Context, oid primitive.ObjectID, update bson.M) (*domain.Payment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var payment domain.Payment
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&payment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	r.populate(ctx, &payment)
	return &payment, nil
}

// populate joins the user, parcel, consolidation and invoice references,
// best-effort.
func (r *MongoPaymentRepository) populate(ctx context.Context, payment *domain.Payment) {
	if r.directory != nil {
		if u, err := r.directory.FindUserByID(ctx, payment.UserID.Hex()); err == nil {
			payment.User = u
		}
	}
	if len(payment.ParcelIDs) > 0 {
		cursor, err := r.db.Collection(parcelsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": payment.ParcelIDs}})
		if err == nil {
			var parcels []*parceldomain.Parcel
			if err := cursor.All(ctx, &parcels); err == nil {
				payment.Parcels = parcels
			}
		}
	}
	if payment.ConsolidationID != nil {
		var consolidation consolidationdomain.Consolidation
		if err := r.db.Collection(consolidationsCollection).
			FindOne(ctx, bson.M{"_id": *payment.ConsolidationID}).Decode(&consolidation); err == nil {
			payment.Consolidation = &consolidation
		}
	}
	if payment.InvoiceID != nil {
		var invoice invoicedomain.Invoice
		if err := r.db.Collection(invoicesCollection).
			FindOne(ctx, bson.M{"_id": *payment.InvoiceID}).Decode(&invoice); err == nil {
			payment.Invoice = &invoice
		}
	}
}
