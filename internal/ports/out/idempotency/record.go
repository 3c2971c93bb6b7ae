package idempotency

import "time"

// Key is the caller-provided idempotency key (Idempotency-Key header).
// Syntactic validation (UUID format) happens at the application layer;
// the port treats it as opaque.
type Key string

// Status is the lifecycle state of a record.
type Status string

const (
	// StatusProcessing marks a request admitted to the downstream handler
	// whose outcome has not yet been recorded.
	StatusProcessing Status = "PROCESSING"
	// StatusCompleted marks a request whose response is cached for replay.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed marks a request whose handler failed; the key may be retried.
	StatusFailed Status = "FAILED"
)

// Terminal reports whether s is a state the record will not leave except
// via an explicit retry reset.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record is one row per idempotency key: the request fingerprint the key
// was first bound to, its lifecycle status, and the cached outcome.
type Record struct {
	Key Key

	// RequestPath/RequestMethod/RequestHash identify the request the key
	// was bound to at first admission. RequestHash is the hex-encoded
	// SHA-256 digest of the raw request body.
	RequestPath   string
	RequestMethod string
	RequestHash   string

	Status Status

	// ResponseStatus/ResponseContentType/ResponseBody are the cached
	// outcome, populated only when Status is COMPLETED.
	ResponseStatus      int
	ResponseContentType string
	ResponseBody        []byte

	CreatedAt   time.Time
	CompletedAt *time.Time
}
