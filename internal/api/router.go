package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/doclife/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/documents", h.ListDocuments)
	r.Get("/completion/*", h.Completion)
	r.Get("/status/*", h.Status)

	// Revision-range driven views.
	r.Get("/scan", h.Scan)
	r.Get("/report", h.Report)
	r.Get("/transitions", h.Transitions)

	// Mutations.
	r.Post("/apply", h.Apply)
	r.Post("/folders", h.EnsureFolders)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
