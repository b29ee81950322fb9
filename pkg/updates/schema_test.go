package updates

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

var propertySchema = Schema{
	Entity:    "property",
	Keys:      []string{"propertyId", "location"},
	Updatable: []string{"hostId", "title", "description", "bedroomCount", "bathroomCount", "maxGuests", "amenities"},
}

func TestCompose_RejectsKeyAttributes(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]any
	}{
		{
			name:  "partition key alone",
			attrs: map[string]any{"propertyId": "p2"},
		},
		{
			name:  "sort key alone",
			attrs: map[string]any{"location": "loc-2"},
		},
		{
			name: "key attribute among valid fields",
			attrs: map[string]any{
				"title":      "Updated title",
				"propertyId": "p2",
				"maxGuests":  4,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := propertySchema.Compose(tt.attrs, time.Now())
			if err == nil {
				t.Fatal("expected key attribute rejection, got nil")
			}
			var invalid *InvalidUpdateError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidUpdateError, got %T", err)
			}
		})
	}
}

func TestCompose_RejectsEmptyMapping(t *testing.T) {
	if _, err := propertySchema.Compose(map[string]any{}, time.Now()); err == nil {
		t.Error("expected empty mapping rejection, got nil")
	}
	if _, err := propertySchema.Compose(nil, time.Now()); err == nil {
		t.Error("expected nil mapping rejection, got nil")
	}
}

func TestCompose_RejectsUnknownAttribute(t *testing.T) {
	_, err := propertySchema.Compose(map[string]any{"poolDepth": 3}, time.Now())
	if err == nil {
		t.Fatal("expected unknown attribute rejection, got nil")
	}

	var invalid *InvalidUpdateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidUpdateError, got %T", err)
	}
	if invalid.Attribute != "poolDepth" {
		t.Errorf("expected rejected attribute poolDepth, got %q", invalid.Attribute)
	}
}

func TestCompose_IgnoresCallerTimestamps(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	doc, err := propertySchema.Compose(map[string]any{
		"title":     "New title",
		"updatedAt": "1999-01-01T00:00:00Z",
		"createdAt": "1999-01-01T00:00:00Z",
	}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	set := doc["$set"].(bson.M)
	if set["updatedAt"] != now {
		t.Errorf("expected updatedAt %v, got %v", now, set["updatedAt"])
	}
	if _, ok := set["createdAt"]; ok {
		t.Error("createdAt must never be rewritten by an update")
	}
}

func TestCompose_TimestampOnlyMappingIsRejected(t *testing.T) {
	if _, err := propertySchema.Compose(map[string]any{"updatedAt": "x"}, time.Now()); err == nil {
		t.Error("expected rejection when nothing but timestamps supplied")
	}
}

func TestCompose_Idempotent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	attrs := map[string]any{
		"title":     "Seaside flat",
		"maxGuests": 6,
		"amenities": []string{"wifi", "parking"},
	}

	first, err := propertySchema.Compose(attrs, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := propertySchema.Compose(attrs, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("composing the same mapping twice diverged:\n%v\n%v", first, second)
	}
}

func TestIsKey(t *testing.T) {
	if !propertySchema.IsKey("propertyId") || !propertySchema.IsKey("location") {
		t.Error("expected both key attributes to be recognized")
	}
	if propertySchema.IsKey("title") {
		t.Error("title is not a key attribute")
	}
}
