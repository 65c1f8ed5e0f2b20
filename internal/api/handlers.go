package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultport/internal/apperr"
	"github.com/starford/vaultport/internal/identity"
	"github.com/starford/vaultport/internal/index"
	"github.com/starford/vaultport/internal/linter"
	"github.com/starford/vaultport/internal/vaultservice"
)

// Converter converts one page body without touching the file system.
type Converter interface {
	ConvertContent(text, sourceRel string) string
}

// Handler holds API route handlers.
type Handler struct {
	svc  *vaultservice.Service
	conv Converter
	lint *linter.Linter
}

// NewHandler creates a new Handler.
func NewHandler(svc *vaultservice.Service, conv Converter, lint *linter.Linter) *Handler {
	return &Handler{svc: svc, conv: conv, lint: lint}
}

// docPath extracts the vault path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. Home%2FSub.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Lint handles POST /api/lint.
//
//	@Summary		Normalize Markdown against the house style
//	@Tags			pipeline
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ContentRequest	true	"Markdown to lint"
//	@Success		200		{object}	LintResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/lint [post]
func (h *Handler) Lint(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !readJSON(w, r, &req) {
		return
	}
	out := h.lint.Lint(req.Content)
	writeJSON(w, http.StatusOK, LintResponse{
		Content: out,
		Changed: out != req.Content,
		Issues:  nonNil(linter.Validate(req.Content)),
	})
}

// Validate handles POST /api/validate.
//
//	@Summary		Report style issues without rewriting
//	@Tags			pipeline
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ContentRequest	true	"Markdown to check"
//	@Success		200		{object}	ValidateResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/validate [post]
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !readJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Issues: nonNil(linter.Validate(req.Content))})
}

// Convert handles POST /api/convert.
//
//	@Summary		Convert one exported page
//	@Tags			pipeline
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ConvertRequest	true	"Page to convert"
//	@Success		200		{object}	ConvertResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert [post]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	path := req.Path
	if path == "" {
		path = "page.md"
	}
	writeJSON(w, http.StatusOK, ConvertResponse{Content: h.conv.ConvertContent(req.Content, path)})
}

// Resolve handles POST /api/resolve.
//
//	@Summary		Resolve an exported name to its stable form
//	@Tags			pipeline
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ResolveRequest	true	"Name to resolve"
//	@Success		200		{object}	ResolveResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve [post]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	writeJSON(w, http.StatusOK, ResolveResponse{
		Name:     identity.ResolveName(req.Name),
		Stripped: identity.StripID(req.Name) != req.Name,
	})
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List catalog entries
//	@Tags			documents
//	@Produce		json
//	@Param			kind	query		string	false	"Entry kind"	Enums(document, database, asset)
//	@Param			status	query		string	false	"Entry status"	Enums(converted, failed)
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListDocuments(r.Context(), index.ListFilter{
		Kind:   q.Get("kind"),
		Status: q.Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a converted note by vault path
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Vault path"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), path)
	if err != nil {
		h.writeLookupError(w, "get document", path, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Preview handles GET /api/preview/*.
//
//	@Summary		Render a converted note as HTML
//	@Tags			documents
//	@Produce		html
//	@Param			path	path		string	true	"Vault path"
//	@Success		200		{string}	string
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preview/{path} [get]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	out, err := h.svc.Preview(r.Context(), path)
	if err != nil {
		h.writeLookupError(w, "preview", path, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across converted notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{Source: hit.Source, Path: hit.Dest, Title: hit.Title, Snippet: hit.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func (h *Handler) writeLookupError(w http.ResponseWriter, op, path string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidPath):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
	default:
		slog.Error(op+" failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
