package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	propertieserrors "stayhub/internal/properties/errors"
	"stayhub/pkg/config"
	mongostore "stayhub/pkg/db/mongo"
	"stayhub/pkg/model"
)

const (
	CollectionName = "Properties"
)

// propertyDocument stores the composite key (propertyId, location) as the
// document _id so inserts are conditional puts, with the key attributes
// also inline for query paths.
type propertyDocument struct {
	ID             model.PropertyKey `bson:"_id"`
	model.Property `bson:",inline"`
}

type mongoPropertyRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	retryer    mongostore.Retryer
}

type PropertyRepository interface {
	Insert(ctx context.Context, property *model.Property) error
	FindByKey(ctx context.Context, key model.PropertyKey) (*model.Property, error)
	FindByLocation(ctx context.Context, location string, limit int, offset int64) ([]*model.Property, error)
	CountByLocation(ctx context.Context, location string) (int64, error)
	ApplyUpdate(ctx context.Context, key model.PropertyKey, update bson.M) (*model.Property, error)
	Delete(ctx context.Context, key model.PropertyKey) error
}

func NewMongoPropertyRepository(cfg *config.Config) PropertyRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPropertyRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		retryer:    mongostore.NewRetryer(cfg.StoreMaxAttempts, cfg.StoreRetryBaseDelay),
	}
}

func (r *mongoPropertyRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

// Insert performs a conditional put keyed on (propertyId, location).
func (r *mongoPropertyRepository) Insert(ctx context.Context, property *model.Property) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	if property.CreatedAt.IsZero() {
		property.CreatedAt = now
	}
	property.UpdatedAt = now

	doc := propertyDocument{ID: property.Key(), Property: *property}

	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		_, err := r.collection.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return propertieserrors.ErrKeyExists
		}
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

func (r *mongoPropertyRepository) FindByKey(ctx context.Context, key model.PropertyKey) (*model.Property, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreReadTimeout)
	defer cancel()

	var doc propertyDocument
	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		return r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, propertieserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find property: %w", err)
	}

	return &doc.Property, nil
}

func (r *mongoPropertyRepository) FindByLocation(ctx context.Context, location string, limit int, offset int64) ([]*model.Property, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "propertyId", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	var properties []*model.Property
	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		cursor, err := r.collection.Find(ctx, bson.M{"location": location}, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		var docs []propertyDocument
		if err := cursor.All(ctx, &docs); err != nil {
			return err
		}

		properties = make([]*model.Property, 0, len(docs))
		for i := range docs {
			properties = append(properties, &docs[i].Property)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list properties by location: %w", err)
	}

	return properties, nil
}

func (r *mongoPropertyRepository) CountByLocation(ctx context.Context, location string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreReadTimeout)
	defer cancel()

	var count int64
	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		var err error
		count, err = r.collection.CountDocuments(ctx, bson.M{"location": location})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count properties by location: %w", err)
	}

	return count, nil
}

func (r *mongoPropertyRepository) ApplyUpdate(ctx context.Context, key model.PropertyKey, update bson.M) (*model.Property, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc propertyDocument
	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		return r.collection.FindOneAndUpdate(ctx, bson.M{"_id": key}, update, opts).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, propertieserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	return &doc.Property, nil
}

func (r *mongoPropertyRepository) Delete(ctx context.Context, key model.PropertyKey) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	var result *mongo.DeleteResult
	err := r.retryer.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = r.collection.DeleteOne(ctx, bson.M{"_id": key})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if result.DeletedCount == 0 {
		return propertieserrors.ErrNotFound
	}
	return nil
}
