package idempotency

// Machine-readable codes returned to clients for idempotency failures.
const (
	CodeMissingKey      = "MISSING_IDEMPOTENCY_KEY"
	CodeInvalidKey      = "INVALID_IDEMPOTENCY_KEY"
	CodeKeyReuse        = "IDEMPOTENCY_KEY_REUSE"
	CodeRequestMismatch = "IDEMPOTENCY_REQUEST_MISMATCH"
	CodeProcessing      = "IDEMPOTENCY_PROCESSING"
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}
