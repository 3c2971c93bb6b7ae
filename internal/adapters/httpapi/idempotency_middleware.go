package httpapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"

	appidem "github.com/riverbend-community/community-api/internal/app/idempotency"
	idemport "github.com/riverbend-community/community-api/internal/ports/out/idempotency"
)

// IdempotencyKeyHeader is the client-supplied key binding a logical
// operation across retries.
const IdempotencyKeyHeader = "Idempotency-Key"

// Route is one (method, path) pair on the gatekeeper's bypass allow-list.
type Route struct {
	Method string
	Path   string
}

// IdempotencyOptions configures NewIdempotencyMiddleware.
type IdempotencyOptions struct {
	// Bypass lists bootstrap routes (e.g. auth entry points) that skip the
	// gatekeeper even though their method is mutating. Matching is plain
	// string equality on method and path.
	Bypass []Route

	Logger *slog.Logger
}

// NewIdempotencyMiddleware guards every mutating route: each request must
// carry a UUID Idempotency-Key, and for any given key the downstream handler
// runs at most once. Completed outcomes are replayed byte-identically;
// concurrent duplicates are rejected with a 409.
//
// Safe methods (GET/HEAD/OPTIONS/TRACE) bypass entirely per HTTP semantics.
func NewIdempotencyMiddleware(svc *appidem.Service, opts IdempotencyOptions) func(http.Handler) http.Handler {
	bypass := make(map[Route]struct{}, len(opts.Bypass))
	for _, rt := range opts.Bypass {
		bypass[rt] = struct{}{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := bypass[Route{Method: r.Method, Path: r.URL.Path}]; ok {
				next.ServeHTTP(w, r)
				return
			}

			key, err := svc.ValidateKey(r.Header.Get(IdempotencyKeyHeader))
			if err != nil {
				writeIdempotencyError(w, r, err)
				return
			}

			// Buffer the body for fingerprinting; the handler still needs it.
			body, err := io.ReadAll(r.Body)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "unable to read request body", nil)
				return
			}
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))
			sum := sha256.Sum256(body)
			bodyHash := hex.EncodeToString(sum[:])

			adm, err := svc.Admit(r.Context(), key, r.Method, r.URL.Path, bodyHash)
			if err != nil {
				writeIdempotencyError(w, r, err)
				return
			}
			if adm.Replay {
				if adm.ResponseContentType != "" {
					w.Header().Set("Content-Type", adm.ResponseContentType)
				}
				w.WriteHeader(adm.ResponseStatus)
				_, _ = w.Write(adm.ResponseBody)
				return
			}

			// Admitted: the record is PROCESSING and we own its terminal
			// transition. The deferred finalizer runs exactly once on every
			// exit path, panic included, and always flushes whatever the
			// handler managed to produce.
			rec := newResponseRecorder(w)
			defer func() {
				// The marker must commit even if the client has gone away.
				ctx := context.WithoutCancel(r.Context())

				if p := recover(); p != nil {
					if err := svc.Fail(ctx, key); err != nil {
						logger.Error("idempotency: mark failed", "key", key, "error", err)
					}
					// Flush whatever partial output exists; if the handler
					// produced nothing, leave the response to the recoverer.
					if rec.Started() {
						rec.Flush()
					}
					panic(p)
				}

				if rec.Status() >= http.StatusInternalServerError {
					// Server-side failure: leave the key retryable, cache nothing.
					if err := svc.Fail(ctx, key); err != nil {
						logger.Error("idempotency: mark failed", "key", key, "error", err)
					}
				} else {
					out := idemport.Outcome{
						Status:      rec.Status(),
						ContentType: rec.Header().Get("Content-Type"),
						Body:        rec.Body(),
					}
					if err := svc.Complete(ctx, key, out); err != nil {
						logger.Error("idempotency: mark completed", "key", key, "error", err)
					}
				}
				rec.Flush()
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func writeIdempotencyError(w http.ResponseWriter, r *http.Request, err error) {
	ae := (*appidem.Error)(nil)
	if errors.As(err, &ae) {
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", nil)
}
