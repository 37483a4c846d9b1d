package repositories

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrVersionConflict is returned when a cart save loses an optimistic
	// concurrency race.
	ErrVersionConflict = errors.New("version conflict")
)
