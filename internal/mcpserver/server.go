// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the vaultport pipeline and the converted vault over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultport/internal/database"
	"github.com/starford/vaultport/internal/identity"
	"github.com/starford/vaultport/internal/index"
	"github.com/starford/vaultport/internal/linter"
	"github.com/starford/vaultport/internal/vaultservice"
)

// Converter converts one page body without touching the file system.
type Converter interface {
	ConvertContent(text, sourceRel string) string
}

// Server wraps the MCP server with vaultport tools.
type Server struct {
	mcp  *server.MCPServer
	svc  *vaultservice.Service
	conv Converter
	lint *linter.Linter
}

// New creates a new MCP server with all tools registered.
func New(svc *vaultservice.Service, conv Converter, lint *linter.Linter, version string) *Server {
	s := &Server{svc: svc, conv: conv, lint: lint}

	s.mcp = server.NewMCPServer(
		"vaultport",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("convert_markdown",
		mcp.WithDescription("Convert one exported Notion page to the vault dialect and house style. "+
			"No files are written."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Page Markdown as exported")),
		mcp.WithString("path", mcp.Description("Export-relative path of the page; steers link resolution")),
	), s.convertMarkdown)

	s.mcp.AddTool(mcp.NewTool("lint_markdown",
		mcp.WithDescription("Normalize Markdown against the house style and return the result."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown to normalize")),
	), s.lintMarkdown)

	s.mcp.AddTool(mcp.NewTool("validate_markdown",
		mcp.WithDescription("Report house style issues as a JSON list of {line, message}."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown to check")),
	), s.validateMarkdown)

	s.mcp.AddTool(mcp.NewTool("resolve_name",
		mcp.WithDescription("Strip the export identifier from a page or file name and sanitize it."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Exported name, e.g. 'Meeting Notes 0123456789abcdef0123456789abcdef'")),
	), s.resolveName)

	s.mcp.AddTool(mcp.NewTool("project_table",
		mcp.WithDescription("Project CSV database text into row notes and an index note, returned as JSON. "+
			"With inline=true a single Markdown table is returned instead."),
		mcp.WithString("csv", mcp.Required(), mcp.Description("CSV text with a header row")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Database name")),
		mcp.WithBoolean("inline", mcp.Description("Return one Markdown table of all rows")),
	), s.projectTable)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List catalog entries of the converted vault."),
		mcp.WithString("kind", mcp.Description("Filter by kind: document, database or asset")),
		mcp.WithString("status", mcp.Description("Filter by status: converted or failed")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a converted note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path (e.g. Home/Sub Page.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through converted notes."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all converted notes that link to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path of the note")),
	), s.getBacklinks)

	s.mcp.AddResource(
		mcp.NewResource(HouseStyleURI, "House Style",
			mcp.WithResourceDescription("Conventions every converted note follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readHouseStyle,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) convertMarkdown(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := req.GetString("path", "page.md")
	return mcp.NewToolResultText(s.conv.ConvertContent(content, path)), nil
}

func (s *Server) lintMarkdown(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.lint.Lint(content)), nil
}

func (s *Server) validateMarkdown(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	issues := linter.Validate(content)
	if len(issues) == 0 {
		return mcp.NewToolResultText("no issues found"), nil
	}
	return jsonResult(issues)
}

func (s *Server) resolveName(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(identity.ResolveName(name)), nil
}

type projectedFile struct {
	Dest string `json:"dest"`
	Body string `json:"body"`
}

type projection struct {
	Name   string          `json:"name"`
	Folder string          `json:"folder"`
	Rows   []projectedFile `json:"rows"`
	Index  projectedFile   `json:"index"`
}

func (s *Server) projectTable(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("csv")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := database.ReadCSV(strings.NewReader(text))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.GetBool("inline", false) {
		return mcp.NewToolResultText(database.InlineTable(t)), nil
	}

	p, err := database.Project(t, identity.ResolveName(name), nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := projection{
		Name:   p.Name,
		Folder: p.Folder,
		Rows:   make([]projectedFile, len(p.Rows)),
		Index:  projectedFile{Dest: p.Index.Dest, Body: p.Index.Body},
	}
	for i, doc := range p.Rows {
		out.Rows[i] = projectedFile{Dest: doc.Dest, Body: doc.Body}
	}
	return jsonResult(out)
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.svc.ListDocuments(ctx, index.ListFilter{
		Kind:   req.GetString("kind", ""),
		Status: req.GetString("status", ""),
		Limit:  req.GetInt("limit", 0),
		Offset: req.GetInt("offset", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"documents": items, "total": total})
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.GetDocument(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) readHouseStyle(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      HouseStyleURI,
			MIMEType: "text/markdown",
			Text:     HouseStyle,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
