package updates

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Schema declares the updatable surface of one entity type.
type Schema struct {
	Entity    string
	Keys      []string
	Updatable []string
}

// InvalidUpdateError reports a mapping that cannot be turned into a safe
// update instruction.
type InvalidUpdateError struct {
	Entity    string
	Attribute string
	Reason    string
}

func (e *InvalidUpdateError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("invalid %s update: attribute %q %s", e.Entity, e.Attribute, e.Reason)
	}
	return fmt.Sprintf("invalid %s update: %s", e.Entity, e.Reason)
}

// IsKey reports whether name is one of the schema's primary key attributes.
func (s Schema) IsKey(name string) bool {
	for _, k := range s.Keys {
		if k == name {
			return true
		}
	}
	return false
}

func (s Schema) isUpdatable(name string) bool {
	for _, a := range s.Updatable {
		if a == name {
			return true
		}
	}
	return false
}

// Compose validates attrs against the schema and builds the $set document
// to apply against a fixed key. updatedAt is always set to now; a caller
// supplied updatedAt is overwritten, never trusted.
func (s Schema) Compose(attrs map[string]any, now time.Time) (bson.M, error) {
	if len(attrs) == 0 {
		return nil, &InvalidUpdateError{Entity: s.Entity, Reason: "no attributes supplied"}
	}

	set := bson.M{}
	for name, value := range attrs {
		if s.IsKey(name) {
			return nil, &InvalidUpdateError{Entity: s.Entity, Attribute: name, Reason: "is a key attribute and cannot be modified"}
		}
		if name == "updatedAt" || name == "createdAt" {
			continue
		}
		if !s.isUpdatable(name) {
			return nil, &InvalidUpdateError{Entity: s.Entity, Attribute: name, Reason: "is not an updatable attribute"}
		}
		set[name] = value
	}

	if len(set) == 0 {
		return nil, &InvalidUpdateError{Entity: s.Entity, Reason: "no updatable attributes supplied"}
	}

	set["updatedAt"] = now.UTC().Truncate(time.Millisecond)
	return bson.M{"$set": set}, nil
}
