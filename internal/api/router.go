package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// files, if non-nil, serves copied attachments.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, files *AttachmentHandler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Stateless pipeline.
	r.Post("/lint", h.Lint)
	r.Post("/validate", h.Validate)
	r.Post("/convert", h.Convert)
	r.Post("/resolve", h.Resolve)

	// Converted vault.
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/*", h.GetDocument)
	r.Get("/preview/*", h.Preview)
	r.Get("/search", h.Search)

	if files != nil {
		r.Get("/attachments/{filename}", files.ServeFile)
	}

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
