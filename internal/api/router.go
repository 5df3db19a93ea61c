package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wikigraph/internal/linkservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *linkservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Links.
	r.Post("/links/parse", h.ParseLinks)
	r.Get("/links/resolve", h.ResolveLink)
	r.Post("/links/outgoing", h.OutgoingLinks)

	// Graph views.
	r.Get("/backlinks", h.Backlinks)
	r.Get("/tree", h.Tree)

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
