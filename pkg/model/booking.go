package model

import (
	"time"
)

const (
	// DateLayout is the wire format for booking dates. Intervals are
	// half-open: a booking occupies [StartDate, EndDate).
	DateLayout = "2006-01-02"

	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

// BookingKey is the composite primary key of a booking record:
// partition key bookingId, sort key startDate.
type BookingKey struct {
	BookingID string `bson:"bookingId" json:"bookingId"`
	StartDate string `bson:"startDate" json:"startDate"`
}

type Booking struct {
	BookingID     string    `json:"bookingId" bson:"bookingId" validate:"required,min=1,max=64"`
	StartDate     string    `json:"startDate" bson:"startDate" validate:"required,reservedate"`
	EndDate       string    `json:"endDate" bson:"endDate" validate:"required,reservedate"`
	PropertyID    string    `json:"propertyId" bson:"propertyId" validate:"required,min=1,max=64"`
	UserID        string    `json:"userId" bson:"userId" validate:"required,min=1,max=64"`
	PricePerNight float64   `json:"pricePerNight" bson:"pricePerNight" validate:"required,gt=0"`
	Status        string    `json:"status" bson:"status" validate:"omitempty,oneof=CONFIRMED CANCELLED"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt" validate:"omitempty"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt" validate:"omitempty"`
}

func (b *Booking) Key() BookingKey {
	return BookingKey{BookingID: b.BookingID, StartDate: b.StartDate}
}

// ParseDate parses a wire-format calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
