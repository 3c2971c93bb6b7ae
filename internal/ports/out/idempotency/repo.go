package idempotency

import (
	"context"
	"time"
)

// Outcome is the captured downstream response recorded at the COMPLETED
// transition.
type Outcome struct {
	Status      int
	ContentType string
	Body        []byte
}

// Repository persists idempotency records.
//
// Every mutating operation is an independent single-row unit of work that
// commits on its own, regardless of any transaction the surrounding request
// is running. This is load-bearing: a FAILED marker must survive the
// rollback of the handler's own work, and adapters must not enlist these
// writes in a caller-scoped transaction.
type Repository interface {
	// InsertProcessing atomically creates a new PROCESSING record for a
	// never-seen key. It returns ErrKeyExists if a record for the key is
	// already committed; the insert-or-fail atomicity is what arbitrates
	// concurrent first admissions, so adapters must back it with a real
	// uniqueness primitive, not a read-then-write.
	InsertProcessing(ctx context.Context, rec Record) error

	// FindByKey returns the record for key, or ErrNotFound.
	FindByKey(ctx context.Context, key Key) (Record, error)

	// MarkCompleted transitions key to COMPLETED and caches the outcome.
	MarkCompleted(ctx context.Context, key Key, out Outcome, completedAt time.Time) error

	// MarkFailed transitions key to FAILED without caching a response.
	MarkFailed(ctx context.Context, key Key, completedAt time.Time) error

	// ResetToProcessing moves a FAILED record back to PROCESSING for a
	// retry, rewriting the request hash to the new attempt's value and
	// clearing completedAt. Returns ErrNotResettable if the record is not
	// FAILED (a concurrent retry may have reset it first).
	ResetToProcessing(ctx context.Context, key Key, newHash string) error

	// PurgeExpired deletes terminal records created before cutoff and
	// returns the number deleted. PROCESSING records are never deleted,
	// regardless of age.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
