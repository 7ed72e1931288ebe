package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sparrow-parcel/internal/features/invoices/domain"
	"sparrow-parcel/internal/features/invoices/ports"

	consolidationdomain "sparrow-parcel/internal/features/consolidations/domain"
	directoryports "sparrow-parcel/internal/features/directory/ports"
	parceldomain "sparrow-parcel/internal/features/parcels/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	invoicesCollection       = "invoices"
	parcelsCollection        = "parcels"
	consolidationsCollection = "consolidations"
)

// MongoInvoiceRepository implements ports.InvoiceRepository.
type MongoInvoiceRepository struct {
	db        *mongo.Database
	directory directoryports.UserDirectory
}

// NewMongoInvoiceRepository creates a new MongoInvoiceRepository.
func NewMongoInvoiceRepository(db *mongo.Database, users directoryports.UserDirectory) *MongoInvoiceRepository {
	return &MongoInvoiceRepository{db: db, directory: users}
}

func (r *MongoInvoiceRepository) collection() *mongo.Collection {
	return r.db.Collection(invoicesCollection)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrNotFound
	}
	return oid, nil
}

// Insert stores a new invoice and stamps its timestamps.
func (r *MongoInvoiceRepository) Insert(ctx context.Context, invoice *domain.Invoice) error {
	now := time.Now().UTC()
	if invoice.ID.IsZero() {
		invoice.ID = primitive.NewObjectID()
	}
	invoice.CreatedAt = now
	invoice.UpdatedAt = now

	if _, err := r.collection().InsertOne(ctx, invoice); err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}
	return nil
}

// Find lists invoices matching the filter, newest first.
func (r *MongoInvoiceRepository) Find(ctx context.Context, filter ports.Filter) ([]*domain.Invoice, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.UserID != "" {
		oid, err := primitive.ObjectIDFromHex(filter.UserID)
		if err != nil {
			return []*domain.Invoice{}, nil
		}
		query["user"] = oid
	}
	return r.findMany(ctx, query)
}

// FindByID fetches one invoice with its references populated.
func (r *MongoInvoiceRepository) FindByID(ctx context.Context, id string) (*domain.Invoice, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var invoice domain.Invoice
	err = r.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(&invoice)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	r.populate(ctx, &invoice)
	return &invoice, nil
}

// FindByUser lists a user's invoices, newest first.
func (r *MongoInvoiceRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Invoice, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []*domain.Invoice{}, nil
	}
	return r.findMany(ctx, bson.M{"user": oid})
}

// FindByPayment returns the invoice generated for a payment, or (nil, nil)
// when none exists.
func (r *MongoInvoiceRepository) FindByPayment(ctx context.Context, paymentID string) (*domain.Invoice, error) {
	oid, err := primitive.ObjectIDFromHex(paymentID)
	if err != nil {
		return nil, nil
	}

	var invoice domain.Invoice
	err = r.collection().FindOne(ctx, bson.M{"payment": oid}).Decode(&invoice)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice by payment: %w", err)
	}
	r.populate(ctx, &invoice)
	return &invoice, nil
}

// Update applies the non-nil fields of the update.
func (r *MongoInvoiceRepository) Update(ctx context.Context, id string, update ports.Update) (*domain.Invoice, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.DueDate != nil {
		set["dueDate"] = *update.DueDate
	}
	if update.Tax != nil {
		set["tax"] = *update.Tax
	}
	if update.ServiceFee != nil {
		set["serviceFee"] = *update.ServiceFee
	}
	if update.Discount != nil {
		set["discount"] = *update.Discount
	}
	if update.Notes != nil {
		set["notes"] = *update.Notes
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var invoice domain.Invoice
	err = r.collection().FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&invoice)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	r.populate(ctx, &invoice)
	return &invoice, nil
}

// Delete removes an invoice and returns the removed document.
func (r *MongoInvoiceRepository) Delete(ctx context.Context, id string) (*domain.Invoice, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var invoice domain.Invoice
	err = r.collection().FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&invoice)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete invoice: %w", err)
	}
	return &invoice, nil
}

func (r *MongoInvoiceRepository) findMany(ctx context.Context, query bson.M) ([]*domain.Invoice, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoices: %w", err)
	}
	defer cursor.Close(ctx)

	var invoices []*domain.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("failed to decode invoices: %w", err)
	}

	for _, i := range invoices {
		r.populate(ctx, i)
	}
	return invoices, nil
}

// populate joins the user, parcel and consolidation references, best-effort.
func (r *MongoInvoiceRepository) populate(ctx context.Context, invoice *domain.Invoice) {
	if r.directory != nil {
		if u, err := r.directory.FindUserByID(ctx, invoice.UserID.Hex()); err == nil {
			invoice.User = u
		}
	}
	if len(invoice.ParcelIDs) > 0 {
		cursor, err := r.db.Collection(parcelsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": invoice.ParcelIDs}})
		if err == nil {
			var parcels []*parceldomain.Parcel
			if err := cursor.All(ctx, &parcels); err == nil {
				invoice.Parcels = parcels
			}
		}
	}
	if invoice.ConsolidationID != nil {
		var consolidation consolidationdomain.Consolidation
		if err := r.db.Collection(consolidationsCollection).
			FindOne(ctx, bson.M{"_id": *invoice.ConsolidationID}).Decode(&consolidation); err == nil {
			invoice.Consolidation = &consolidation
		}
	}
}
