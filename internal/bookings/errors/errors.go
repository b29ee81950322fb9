package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrKeyExists = errors.New("a booking record already exists under this key")

	ErrLockHeld = errors.New("reservation lock is held by another request")
)
