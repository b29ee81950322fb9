// Package sanitizer provides input normalization for listing data.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// returning empty strings or empty slices rather than errors.
//
// Normalization includes:
//   - Free text (titles, descriptions): collapse whitespace, trim edges
//   - Amenity labels: lowercase, collapse whitespace
//   - Slices: remove duplicates and empty values after normalization
//   - Numbers: clamp to declared ranges
package sanitizer
