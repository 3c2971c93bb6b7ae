package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions carries the middleware the caller wants wired around the API.
type RouterOptions struct {
	// AuthMiddleware populates the request subject. Required for routes
	// that attribute writes to an author.
	AuthMiddleware func(http.Handler) http.Handler

	// IdempotencyMiddleware is the gatekeeper guarding mutating routes.
	// Nil leaves mutating routes unguarded (tests only).
	IdempotencyMiddleware func(http.Handler) http.Handler
}

// NewRouter constructs the API HTTP router.
//
// This is intentionally a thin adapter: it wires routes and middleware and
// delegates to the Server handler methods. The recoverer sits above the
// gatekeeper so a handler panic is first recorded as a FAILED outcome and
// then turned into a 500 here.
func NewRouter(api *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.AuthMiddleware != nil {
		r.Use(opts.AuthMiddleware)
	}
	if opts.IdempotencyMiddleware != nil {
		r.Use(opts.IdempotencyMiddleware)
	}

	// Health endpoint is deliberately unauthenticated: the auth middleware
	// skips it by path and the gatekeeper bypasses safe methods.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/boards", func(r chi.Router) {
		r.Get("/", api.handleListBoards)
		r.Post("/", api.handleCreateBoard)
		r.Route("/{boardID}", func(r chi.Router) {
			r.Get("/", api.handleGetBoard)
			r.Patch("/", api.handleUpdateBoard)
			r.Delete("/", api.handleDeleteBoard)
			r.Get("/topics", api.handleListTopics)
			r.Post("/topics", api.handleCreateTopic)
		})
	})
	r.Route("/topics/{topicID}", func(r chi.Router) {
		r.Get("/", api.handleGetTopic)
		r.Get("/comments", api.handleListComments)
		r.Post("/comments", api.handleAddComment)
	})

	return r
}
