// Package updates composes safe partial-update instructions for
// composite-key records.
//
// A Schema declares, per entity, which attribute names form the primary key
// and which may be rewritten by clients. Compose turns an arbitrary
// attribute-to-value mapping into a $set document the store applies
// atomically to a single record: key attributes are rejected outright,
// unknown attributes are rejected, and updatedAt is always stamped with the
// operation timestamp regardless of caller input.
//
// Composition is idempotent - applying the same mapping twice yields the
// same final record, timestamps aside. The package is shared by the booking
// and property services and has no knowledge of either.
package updates
