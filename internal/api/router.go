package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/editor"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/registry"
	"github.com/starford/ansuz/internal/rewrite"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(
	svc *noteservice.Service,
	reg *registry.Registry,
	rw *rewrite.Rewriter,
	bufs *editor.Buffers,
	authEnabled bool,
	token string,
	sseHandler http.Handler,
) chi.Router {
	h := NewHandler(svc)
	lh := NewLinkerHandler(reg, rw)
	sh := NewSessionHandler(bufs)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)
	r.Delete("/notes/*", h.DeleteNote)

	// Search.
	r.Get("/search", h.Search)

	// Tag linker.
	r.Get("/tags", lh.Tags)
	r.Post("/scan", lh.Scan)
	r.Post("/rewrite", lh.Rewrite)

	// Live editing sessions.
	r.Post("/sessions", sh.Open)
	r.Get("/sessions/{id}/content", sh.GetContent)
	r.Put("/sessions/{id}/content", sh.SetContent)
	r.Delete("/sessions/{id}", sh.Close)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
