package httpapi

import (
	"bytes"
	"net/http"
)

// responseRecorder buffers the downstream handler's status code and body so
// the gatekeeper can persist the outcome before anything reaches the wire.
// Headers pass straight through to the underlying writer's header map;
// only status and body delivery are deferred. Flush delivers exactly once.
type responseRecorder struct {
	w http.ResponseWriter

	status  int
	body    bytes.Buffer
	flushed bool
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{w: w}
}

func (r *responseRecorder) Header() http.Header {
	return r.w.Header()
}

func (r *responseRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(p)
}

// Status returns the recorded status code, defaulting to 200 the way
// net/http does for handlers that never call WriteHeader.
func (r *responseRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *responseRecorder) Body() []byte {
	return r.body.Bytes()
}

// Started reports whether the handler produced any output at all.
func (r *responseRecorder) Started() bool {
	return r.status != 0 || r.body.Len() > 0
}

// Flush writes the captured status and body to the real transport. Repeat
// calls are no-ops, so the finalization path can call it on both the normal
// and the panic exit without double delivery.
func (r *responseRecorder) Flush() {
	if r.flushed {
		return
	}
	r.flushed = true
	r.w.WriteHeader(r.Status())
	_, _ = r.w.Write(r.body.Bytes())
}
