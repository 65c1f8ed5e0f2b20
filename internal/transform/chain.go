// Package transform rewrites exported page bodies into the target vault
// dialect. A Chain runs an ordered list of independent passes exactly once
// each; callers may supply their own list instead of the default one.
package transform

import (
	"log/slog"
	"path"

	"github.com/starford/vaultport/internal/identity"
)

// Doc is the context a pass may consult: the source-relative path of the
// page being converted, the mapping of every known page and, optionally,
// the attachment path assigned to each source-relative asset.
type Doc struct {
	Path    string
	Mapping *identity.Mapping
	Assets  func(rel string) (string, bool)
}

// Dir returns the slash-separated directory of the page.
func (d Doc) Dir() string {
	return path.Dir(d.Path)
}

// Pass rewrites a page body.
type Pass struct {
	Name  string
	Apply func(body string, doc Doc) string
}

// Lift adapts a context-free text rewrite into a Pass.
func Lift(name string, fn func(string) string) Pass {
	return Pass{Name: name, Apply: func(body string, _ Doc) string { return fn(body) }}
}

// DefaultPasses returns the standard conversion order.
func DefaultPasses() []Pass {
	return []Pass{
		Lift("headings", SpaceHeadings),
		Lift("lists", NormalizeLists),
		Lift("checkboxes", NormalizeCheckboxes),
		Lift("code-fences", PadCodeFences),
		Lift("callouts", ConvertCallouts),
		Lift("tables", RespaceTables),
		{Name: "links", Apply: RetargetLinks},
		{Name: "images", Apply: RetargetImages},
		Lift("toggles", ConvertToggles),
		Lift("entities", DecodeEntities),
	}
}

// Chain applies passes in order.
type Chain struct {
	passes []Pass
	logger *slog.Logger
}

// NewChain builds a chain over passes. A nil or empty list selects
// DefaultPasses.
func NewChain(logger *slog.Logger, passes ...Pass) *Chain {
	if len(passes) == 0 {
		passes = DefaultPasses()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain{passes: passes, logger: logger}
}

// Passes returns the names of the configured passes in order.
func (c *Chain) Passes() []string {
	names := make([]string, len(c.passes))
	for i, p := range c.passes {
		names[i] = p.Name
	}
	return names
}

// Apply runs every pass once, in order.
func (c *Chain) Apply(body string, doc Doc) string {
	for _, p := range c.passes {
		out := p.Apply(body, doc)
		if out != body {
			c.logger.Debug("transform: pass changed body",
				slog.String("pass", p.Name),
				slog.String("source", doc.Path))
		}
		body = out
	}
	return body
}
