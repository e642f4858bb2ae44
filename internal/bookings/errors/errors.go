package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrFacilityNotFound = errors.New("facility not found")

	ErrInvalidID = errors.New("invalid ID format")

	// ErrStatusChanged means a status-guarded write matched nothing because
	// another request changed the booking first.
	ErrStatusChanged = errors.New("booking status changed concurrently")

	ErrLockBusy = errors.New("booking lock is held by another request")

	ErrLockLost = errors.New("booking lock is no longer held")
)
