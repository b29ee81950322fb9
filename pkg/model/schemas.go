package model

import "stayhub/pkg/updates"

// PropertyUpdateSchema is the allow-list for property partial updates.
var PropertyUpdateSchema = updates.Schema{
	Entity:    "property",
	Keys:      []string{"propertyId", "location"},
	Updatable: []string{"hostId", "title", "description", "bedroomCount", "bathroomCount", "maxGuests", "amenities"},
}

// BookingUpdateSchema is the allow-list for booking partial updates.
// startDate is a key attribute: date-changing updates are handled by the
// booking service as a re-keyed rewrite, never through Compose. status is
// listed so the cancel path can go through the composer, but the service
// rejects it from client-supplied mappings.
var BookingUpdateSchema = updates.Schema{
	Entity:    "booking",
	Keys:      []string{"bookingId", "startDate"},
	Updatable: []string{"endDate", "pricePerNight", "status"},
}
