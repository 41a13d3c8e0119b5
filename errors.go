package goviewset

import "errors"

var (
	// ErrNotFound the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidOrdering the ordering parameter references an unknown field.
	ErrInvalidOrdering = errors.New("invalid ordering")
)
