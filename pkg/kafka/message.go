package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is a lifecycle event bound for a topic partition keyed by the
// record it concerns.
type Message struct {
	Key       string            // partition key (bookingId or propertyId)
	Value     []byte            // JSON-encoded payload
	Headers   map[string]string // event metadata
	Timestamp time.Time
}

// Header keys stamped on every published event.
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderSchemaVersion = "schema-version"
	HeaderSource        = "source"
)

const schemaVersion = "1"

// Event types emitted by the services.
const (
	EventBookingCreated   = "booking.created"
	EventBookingUpdated   = "booking.updated"
	EventBookingCancelled = "booking.cancelled"
	EventPropertyCreated  = "property.created"
	EventPropertyUpdated  = "property.updated"
	EventPropertyDeleted  = "property.deleted"
)

// NewEvent builds a message for the given event type, keyed by the record
// identifier, with the payload JSON-encoded.
func NewEvent(eventType, key, source string, payload any) (Message, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Key:   key,
		Value: value,
		Headers: map[string]string{
			HeaderEventID:       uuid.NewString(),
			HeaderEventType:     eventType,
			HeaderSchemaVersion: schemaVersion,
			HeaderSource:        source,
		},
		Timestamp: time.Now().UTC(),
	}, nil
}
