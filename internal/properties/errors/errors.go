package errors

import "errors"

var (
	ErrNotFound = errors.New("property not found")

	ErrKeyExists = errors.New("a property record already exists under this key")
)
