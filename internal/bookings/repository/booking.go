package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "stayhub/internal/bookings/errors"
	"stayhub/pkg/config"
	mongostore "stayhub/pkg/db/mongo"
	"stayhub/pkg/model"
)

const (
	CollectionName = "Bookings"
)

// bookingDocument is the stored shape of a booking. The composite key
// (bookingId, startDate) doubles as the document _id, so an insert is a
// conditional put: it succeeds only if no record exists under that key.
// The key attributes are also stored inline so secondary-path queries
// (propertyId, status, startDate) hit top-level fields.
type bookingDocument struct {
	ID            model.BookingKey `bson:"_id"`
	model.Booking `bson:",inline"`
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	retryer    mongostore.Retryer
}

type BookingRepository interface {
	Insert(ctx context.Context, booking *model.Booking) error
	FindByKey(ctx context.Context, key model.BookingKey) (*model.Booking, error)
	FindByBookingID(ctx context.Context, bookingID string) (*model.Booking, error)
	FindConfirmedOverlapping(ctx context.Context, propertyID, startDate, endDate string) ([]*model.Booking, error)
	FindByProperty(ctx context.Context, propertyID, status string, limit int, offset int64) ([]*model.Booking, error)
	CountByProperty(ctx context.Context, propertyID, status string) (int64, error)
	ApplyUpdate(ctx context.Context, key model.BookingKey, update bson.M) (*model.Booking, error)
	Delete(ctx context.Context, key model.BookingKey) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		retryer:    mongostore.NewRetryer(cfg.StoreMaxAttempts, cfg.StoreRetryBaseDelay),
	}
}

func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

// Insert performs a conditional put: it fails with ErrKeyExists when a
// booking already holds the (bookingId, startDate) key.
func (r *mongoBookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	doc := bookingDocument{ID: booking.Key(), Booking: *booking}

	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		_, err := r.collection.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrKeyExists
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) FindByKey(ctx context.Context, key model.BookingKey) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreReadTimeout)
	defer cancel()

	var doc bookingDocument
	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &doc.Booking, nil
}

// FindByBookingID resolves a booking from its partition key alone, for
// callers that do not know the startDate. A bookingId maps to at most one
// live record, so the first match is the record.
func (r *mongoBookingRepository) FindByBookingID(ctx context.Context, bookingID string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreReadTimeout)
	defer cancel()

	var doc bookingDocument
	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &doc.Booking, nil
}

// FindConfirmedOverlapping returns CONFIRMED bookings on the property whose
// half-open interval [startDate, endDate) intersects the given window. The
// wire date format is lexicographically ordered, so the comparison runs on
// the strings themselves and is served by the (propertyId, status,
// startDate) index.
func (r *mongoBookingRepository) FindConfirmedOverlapping(ctx context.Context, propertyID, startDate, endDate string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreReadTimeout)
	defer cancel()

	filter := bson.M{
		"propertyId": propertyID,
		"status":     model.StatusConfirmed,
		"startDate":  bson.M{"$lt": endDate},
		"endDate":    bson.M{"$gt": startDate},
	}

	var bookings []*model.Booking
	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}}))
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		var docs []bookingDocument
		if err := cursor.All(ctx, &docs); err != nil {
			return err
		}

		bookings = make([]*model.Booking, 0, len(docs))
		for i := range docs {
			bookings = append(bookings, &docs[i].Booking)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping bookings: %w", err)
	}

	return bookings, nil
}

func propertyFilter(propertyID, status string) bson.M {
	filter := bson.M{"propertyId": propertyID}
	if status != "" {
		filter["status"] = status
	}
	return filter
}

func (r *mongoBookingRepository) FindByProperty(ctx context.Context, propertyID, status string, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "startDate", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	var bookings []*model.Booking
	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		cursor, err := r.collection.Find(ctx, propertyFilter(propertyID, status), opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		var docs []bookingDocument
		if err := cursor.All(ctx, &docs); err != nil {
			return err
		}

		bookings = make([]*model.Booking, 0, len(docs))
		for i := range docs {
			bookings = append(bookings, &docs[i].Booking)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by property: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) CountByProperty(ctx context.Context, propertyID, status string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreReadTimeout)
	defer cancel()

	var count int64
	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		var err error
		count, err = r.collection.CountDocuments(ctx, propertyFilter(propertyID, status))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings by property: %w", err)
	}

	return count, nil
}

// ApplyUpdate applies a composed $set document to the booking under key and
// returns the post-update record.
func (r *mongoBookingRepository) ApplyUpdate(ctx context.Context, key model.BookingKey, update bson.M) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bookingDocument
	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		return r.collection.FindOneAndUpdate(ctx, bson.M{"_id": key}, update, opts).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	return &doc.Booking, nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, key model.BookingKey) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	var result *mongo.DeleteResult
	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = r.collection.DeleteOne(ctx, bson.M{"_id": key})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}
