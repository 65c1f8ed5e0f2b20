package api

import (
	"github.com/starford/vaultport/internal/linter"
	"github.com/starford/vaultport/internal/vaultservice"
)

// ContentRequest is the request body for lint and validate.
type ContentRequest struct {
	Content string `json:"content" example:"#Title\n\n*  item" validate:"required"`
}

// LintResponse carries the normalized text and the issues found in the input.
type LintResponse struct {
	Content string         `json:"content" validate:"required"`
	Changed bool           `json:"changed"`
	Issues  []linter.Issue `json:"issues" validate:"required"`
}

// ValidateResponse lists style issues without rewriting anything.
type ValidateResponse struct {
	Issues []linter.Issue `json:"issues" validate:"required"`
}

// ConvertRequest is the request body for converting one page.
type ConvertRequest struct {
	Content string `json:"content" example:"# Page\n\n[Other](Other%20abc.md)" validate:"required"`
	Path    string `json:"path,omitempty" example:"Page 0123456789abcdef0123456789abcdef.md"`
}

// ConvertResponse carries the converted and linted page.
type ConvertResponse struct {
	Content string `json:"content" validate:"required"`
}

// ResolveRequest is the request body for name resolution.
type ResolveRequest struct {
	Name string `json:"name" example:"Meeting Notes 0123456789abcdef0123456789abcdef" validate:"required"`
}

// ResolveResponse carries the resolved name and whether an identifier was
// stripped.
type ResolveResponse struct {
	Name     string `json:"name" example:"Meeting Notes" validate:"required"`
	Stripped bool   `json:"stripped"`
}

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = vaultservice.DocumentDetail

// DocumentListItem is one catalog row (aliased from the domain layer).
type DocumentListItem = vaultservice.DocumentListItem

// DocumentListResponse wraps paginated catalog listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Source  string `json:"source" example:"Home 0123456789abcdef0123456789abcdef.md" validate:"required"`
	Path    string `json:"path" example:"Home.md" validate:"required"`
	Title   string `json:"title" example:"Home" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
