package store

import "errors"

var (
	// ErrConflict reports a violated uniqueness or exclusion rule, usually an
	// overlapping booking.
	ErrConflict = errors.New("store: conflict")
	ErrNotFound = errors.New("store: not found")
	// ErrIdempotencyConflict means a deterministic id is already taken by a
	// different reservation.
	ErrIdempotencyConflict = errors.New("store: idempotency key reused for a different booking")
)
