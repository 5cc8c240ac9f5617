package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a uniqueness constraint is violated,
	// e.g. a second feedback for a booking or a vehicle number collision.
	ErrDuplicate = errors.New("entity already exists")

	// ErrVersionConflict is returned when a conditional update loses the
	// optimistic-lock race: the stored version no longer matches the one
	// the caller read.
	ErrVersionConflict = errors.New("version conflict")
)
