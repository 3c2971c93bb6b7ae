package idempotency

import "errors"

var (
	// ErrNotFound indicates no record exists for the requested key.
	ErrNotFound = errors.New("idempotency record not found")

	// ErrKeyExists indicates an atomic insert lost the race: a record for
	// the key was already committed. Adapters must return this for a
	// uniqueness violation, never a generic error, so callers can map it
	// to a conflict response.
	ErrKeyExists = errors.New("idempotency key already exists")

	// ErrNotResettable indicates a reset was attempted on a record that is
	// not in FAILED state.
	ErrNotResettable = errors.New("idempotency record is not in FAILED state")
)
