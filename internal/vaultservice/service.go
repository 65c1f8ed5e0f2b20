// Package vaultservice is the read side of a converted vault: note detail,
// listings, search, backlinks and HTML previews, served from the output
// tree and the conversion catalog.
package vaultservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/starford/vaultport/internal/apperr"
	"github.com/starford/vaultport/internal/checksum"
	"github.com/starford/vaultport/internal/identity"
	"github.com/starford/vaultport/internal/index"
	"github.com/starford/vaultport/internal/parser"
	"github.com/starford/vaultport/internal/storage"
)

// DocumentDetail is the full representation of a converted note.
type DocumentDetail struct {
	Path        string         `json:"path"`
	Source      string         `json:"source,omitempty"`
	Kind        string         `json:"kind,omitempty"`
	Status      string         `json:"status,omitempty"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Links       []string       `json:"links"`
	Backlinks   []string       `json:"backlinks"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DocumentListItem is a lightweight catalog row.
type DocumentListItem struct {
	Source    string    `json:"source"`
	Path      string    `json:"path"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service reads the output vault and the catalog.
type Service struct {
	vault   storage.Provider
	catalog index.Catalog
	md      goldmark.Markdown
}

// NewService creates a new vault service.
func NewService(vault storage.Provider, catalog index.Catalog) *Service {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)
	return &Service{vault: vault, catalog: catalog, md: md}
}

// GetDocument reads the note at the vault-relative path, parses it and
// enriches it with catalog state and backlinks.
func (s *Service) GetDocument(ctx context.Context, path string) (*DocumentDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.vault.Read(path)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	bl, err := s.catalog.Backlinks(identity.Stem(path))
	if err != nil {
		return nil, err
	}
	detail := &DocumentDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		Links:       nonNilSlice(res.Links),
		Backlinks:   nonNilSlice(bl),
	}
	if detail.Title == "" {
		detail.Title = identity.Stem(path)
	}

	entry, err := s.catalog.GetByDest(path)
	switch {
	case err == nil:
		detail.Source = entry.Source
		detail.Kind = entry.Kind
		detail.Status = entry.Status
		detail.UpdatedAt = entry.UpdatedAt
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}
	if detail.UpdatedAt.IsZero() {
		if meta, err := s.vault.Stat(path); err == nil {
			detail.UpdatedAt = meta.UpdatedAt
		}
	}
	return detail, nil
}

// ListDocuments returns a page of catalog entries and the total match count.
func (s *Service) ListDocuments(_ context.Context, f index.ListFilter) ([]DocumentListItem, int, error) {
	rows, total, err := s.catalog.List(f)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentListItem{
			Source:    r.Source,
			Path:      r.Dest,
			Kind:      r.Kind,
			Title:     r.Title,
			Status:    r.Status,
			Error:     r.Error,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.catalog.Search(query, limit)
}

// Backlinks returns the vault paths of notes linking to the note at path.
func (s *Service) Backlinks(_ context.Context, path string) ([]string, error) {
	bl, err := s.catalog.Backlinks(identity.Stem(path))
	return nonNilSlice(bl), err
}

var wikilinkRe = regexp.MustCompile(`(!?)\[\[([^\[\]|]+?)(?:\|([^\[\]]+?))?\]\]`)

// Preview renders the body of the note at path as an HTML fragment.
// Wikilinks become relative links so the fragment is navigable.
func (s *Service) Preview(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := s.vault.Read(path)
	if err != nil {
		return "", err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return "", err
	}
	body := wikilinkRe.ReplaceAllStringFunc(res.Body, rewriteWikilink)

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("vaultservice: render %s: %w", path, err)
	}
	return buf.String(), nil
}

func rewriteWikilink(m string) string {
	sub := wikilinkRe.FindStringSubmatch(m)
	target, label := sub[2], sub[3]
	if label == "" {
		label = target
	}
	if sub[1] == "!" {
		return fmt.Sprintf("![%s](<%s>)", label, target)
	}
	return fmt.Sprintf("[%s](<%s.md>)", label, target)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
