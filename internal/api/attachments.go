package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultport/internal/apperr"
	"github.com/starford/vaultport/internal/storage"
)

// AttachmentHandler serves copied attachments read-only from the vault.
type AttachmentHandler struct {
	vault storage.Provider
	dir   string
}

// NewAttachmentHandler creates a handler over dir inside vault.
func NewAttachmentHandler(vault storage.Provider, dir string) *AttachmentHandler {
	return &AttachmentHandler{vault: vault, dir: dir}
}

// ServeFile handles GET /api/attachments/{filename}.
func (h *AttachmentHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if name == "" || name != path.Base(name) || strings.Contains(name, "..") {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid filename"))
		return
	}
	rc, err := h.vault.Open(path.Join(h.dir, name))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, apperr.ErrInvalidPath):
			writeJSON(w, http.StatusBadRequest, errorBody("invalid filename"))
		default:
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	defer rc.Close()

	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}
