package model

import "time"

// ReservationLock is an advisory lock serializing booking arbitration for a
// single property. It narrows, but does not close, the window between the
// overlap check and the conditional write; the conditional write remains
// the final arbiter.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
