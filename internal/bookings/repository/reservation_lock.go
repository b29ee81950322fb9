package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "stayhub/internal/bookings/errors"
	"stayhub/pkg/config"
	"stayhub/pkg/model"
)

const LockCollectionName = "Reservation_locks"

// ReservationLockRepository provides advisory per-property locks used to
// serialize booking arbitration. Expired locks are reaped by a TTL index
// on expiresAt.
type ReservationLockRepository interface {
	// Acquire takes the lock, returning ErrLockHeld when another request
	// holds an unexpired lock under the same id.
	Acquire(ctx context.Context, lockID string, ttl time.Duration) error
	Release(ctx context.Context, lockID string) error
}

type mongoReservationLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewReservationLockRepository(cfg *config.Config) ReservationLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoReservationLockRepository) Acquire(ctx context.Context, lockID string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	lock := model.ReservationLock{
		ID:        lockID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to acquire reservation lock: %w", err)
	}

	// The TTL monitor only runs periodically, so an expired lock may still
	// be present. Take it over if its deadline has passed.
	res, delErr := r.collection.DeleteOne(ctx, bson.M{
		"_id":       lockID,
		"expiresAt": bson.M{"$lte": now},
	})
	if delErr != nil {
		return fmt.Errorf("failed to reap expired reservation lock: %w", delErr)
	}
	if res.DeletedCount == 0 {
		return bookingserrors.ErrLockHeld
	}

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to acquire reservation lock: %w", err)
	}
	return nil
}

func (r *mongoReservationLockRepository) Release(ctx context.Context, lockID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.StoreWriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID}); err != nil {
		return fmt.Errorf("failed to release reservation lock: %w", err)
	}
	return nil
}
