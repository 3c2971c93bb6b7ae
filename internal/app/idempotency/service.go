package idempotency

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	clockport "github.com/riverbend-community/community-api/internal/ports/out/clock"
	idemport "github.com/riverbend-community/community-api/internal/ports/out/idempotency"
)

// Service is the sole mutator of idempotency records. Each repository call
// it makes is an independently committed unit of work, so lifecycle markers
// survive whatever the guarded handler does to its own transaction.
type Service struct {
	repo idemport.Repository
	clk  clockport.Clock
}

func NewService(repo idemport.Repository, clk clockport.Clock) *Service {
	return &Service{repo: repo, clk: clk}
}

// Admission is the outcome of Admit for a request that was not rejected.
// Either the request proceeds to the downstream handler, or Replay is true
// and the cached response must be written verbatim with no handler call.
type Admission struct {
	Replay bool

	ResponseStatus      int
	ResponseContentType string
	ResponseBody        []byte
}

// ValidateKey checks the raw Idempotency-Key header value and returns the
// typed key. The key must be present and syntactically a UUID.
func (s *Service) ValidateKey(raw string) (idemport.Key, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &Error{
			Status:  http.StatusBadRequest,
			Code:    CodeMissingKey,
			Message: "Idempotency-Key header is required for this operation.",
		}
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", &Error{
			Status:  http.StatusBadRequest,
			Code:    CodeInvalidKey,
			Message: "Idempotency-Key must be a valid UUID.",
			Details: map[string]any{"key": raw},
		}
	}
	return idemport.Key(raw), nil
}

// Admit decides what happens to a request bearing key: proceed to the
// handler (and record PROCESSING), replay a cached response, or reject.
//
// Status conflicts take priority over content checks: a PROCESSING record
// rejects immediately even when path/method/hash all match, because the
// in-flight request always wins the race.
func (s *Service) Admit(ctx context.Context, key idemport.Key, method, path, bodyHash string) (Admission, error) {
	rec, err := s.repo.FindByKey(ctx, key)
	if errors.Is(err, idemport.ErrNotFound) {
		return s.admitNew(ctx, key, method, path, bodyHash)
	}
	if err != nil {
		return Admission{}, fmt.Errorf("idempotency lookup: %w", err)
	}

	if rec.Status == idemport.StatusProcessing {
		return Admission{}, processingConflict()
	}
	if rec.RequestPath != path || rec.RequestMethod != method {
		return Admission{}, &Error{
			Status:  http.StatusBadRequest,
			Code:    CodeKeyReuse,
			Message: "Idempotency key was already used for a different operation.",
			Details: map[string]any{
				"originalMethod": rec.RequestMethod,
				"originalPath":   rec.RequestPath,
			},
		}
	}
	if rec.RequestHash != bodyHash {
		return Admission{}, &Error{
			Status:  http.StatusBadRequest,
			Code:    CodeRequestMismatch,
			Message: "Idempotency key was already used with a different request body.",
		}
	}

	if rec.Status == idemport.StatusCompleted {
		return Admission{
			Replay:              true,
			ResponseStatus:      rec.ResponseStatus,
			ResponseContentType: rec.ResponseContentType,
			ResponseBody:        rec.ResponseBody,
		}, nil
	}

	// FAILED with matching fingerprint: a legitimate retry. Reset to
	// PROCESSING; losing the reset race to a concurrent retry is the same
	// conflict as observing PROCESSING.
	if err := s.repo.ResetToProcessing(ctx, key, bodyHash); err != nil {
		if errors.Is(err, idemport.ErrNotResettable) {
			return Admission{}, processingConflict()
		}
		return Admission{}, fmt.Errorf("idempotency reset: %w", err)
	}
	return Admission{}, nil
}

func (s *Service) admitNew(ctx context.Context, key idemport.Key, method, path, bodyHash string) (Admission, error) {
	rec := idemport.Record{
		Key:           key,
		RequestPath:   path,
		RequestMethod: method,
		RequestHash:   bodyHash,
		Status:        idemport.StatusProcessing,
		CreatedAt:     s.clk.Now(),
	}
	if err := s.repo.InsertProcessing(ctx, rec); err != nil {
		if errors.Is(err, idemport.ErrKeyExists) {
			// A concurrent request won the insert race.
			return Admission{}, processingConflict()
		}
		return Admission{}, fmt.Errorf("idempotency insert: %w", err)
	}
	return Admission{}, nil
}

// Complete records the captured handler outcome and caches it for replay.
func (s *Service) Complete(ctx context.Context, key idemport.Key, out idemport.Outcome) error {
	return s.repo.MarkCompleted(ctx, key, out, s.clk.Now())
}

// Fail marks the record FAILED so a byte-identical retry can run the
// handler again. No response is cached.
func (s *Service) Fail(ctx context.Context, key idemport.Key) error {
	return s.repo.MarkFailed(ctx, key, s.clk.Now())
}

// PurgeExpired deletes terminal records created more than retention ago and
// returns the number deleted. PROCESSING records are never purged: a marker
// that old may still be guarding an in-flight operation, and there is no
// reclaim policy for stuck rows (operators delete them by hand).
func (s *Service) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.PurgeExpired(ctx, s.clk.Now().Add(-retention))
}

func processingConflict() *Error {
	return &Error{
		Status:  http.StatusConflict,
		Code:    CodeProcessing,
		Message: "A request with this idempotency key is already being processed.",
	}
}
