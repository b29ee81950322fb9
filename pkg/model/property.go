package model

import "time"

// PropertyKey is the composite primary key of a property listing:
// partition key propertyId, sort key location.
type PropertyKey struct {
	PropertyID string `bson:"propertyId" json:"propertyId"`
	Location   string `bson:"location" json:"location"`
}

type Property struct {
	PropertyID    string    `json:"propertyId" bson:"propertyId" validate:"required,min=1,max=64"`
	Location      string    `json:"location" bson:"location" validate:"required,min=1,max=100"`
	HostID        string    `json:"hostId" bson:"hostId" validate:"required,min=1,max=64"`
	Title         string    `json:"title" bson:"title" validate:"required,min=2,max=200"`
	Description   string    `json:"description" bson:"description" validate:"omitempty,max=5000"`
	BedroomCount  int       `json:"bedroomCount" bson:"bedroomCount" validate:"required,min=1,max=50"`
	BathroomCount int       `json:"bathroomCount" bson:"bathroomCount" validate:"required,min=1,max=50"`
	MaxGuests     int       `json:"maxGuests" bson:"maxGuests" validate:"required,min=1,max=200"`
	Amenities     []string  `json:"amenities" bson:"amenities" validate:"omitempty,max=100,dive,min=1,max=100"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt" validate:"omitempty"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt" validate:"omitempty"`
}

func (p *Property) Key() PropertyKey {
	return PropertyKey{PropertyID: p.PropertyID, Location: p.Location}
}
