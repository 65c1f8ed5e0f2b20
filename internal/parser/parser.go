// Package parser reads converted vault notes back: frontmatter, wikilinks,
// attachment embeds, tags and a display title.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
)

var (
	wikilinkRe = regexp.MustCompile(`(!?)\[\[([^\[\]]*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Result holds the output of parsing a converted note.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Links       []string
	Embeds      []string
	Tags        []string
	Title       string
}

// Parse extracts frontmatter, body, wikilinks, embeds and tags from raw
// note bytes. Unreadable frontmatter leaves the whole input as body.
func Parse(data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)
	links, embeds := extractLinks(body)

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       links,
		Embeds:      embeds,
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}, nil
}

func splitFrontmatter(data []byte) (map[string]any, string) {
	var fm map[string]any
	rest, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return nil, string(data)
	}
	if len(fm) == 0 {
		fm = nil
	}
	if fm == nil && len(rest) == len(data) {
		return nil, string(data)
	}
	return fm, strings.TrimLeft(string(rest), "\r\n")
}

// extractLinks returns deduplicated link and embed targets. Aliases and
// heading anchors are dropped: [[Target#Part|Alias]] yields Target.
func extractLinks(body string) (links, embeds []string) {
	seenLink := make(map[string]struct{})
	seenEmbed := make(map[string]struct{})
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target := m[2]
		if i := strings.IndexAny(target, "|#"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if m[1] == "!" {
			if _, ok := seenEmbed[target]; !ok {
				seenEmbed[target] = struct{}{}
				embeds = append(embeds, target)
			}
			continue
		}
		if _, ok := seenLink[target]; !ok {
			seenLink[target] = struct{}{}
			links = append(links, target)
		}
	}
	return links, embeds
}

// extractTags collects the frontmatter "tags" field (list or scalar) and
// inline #tags from the body.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimPrefix(strings.TrimSpace(s), "#")
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if raw, ok := fm["tags"]; ok {
		switch v := raw.(type) {
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		case string:
			for _, s := range strings.Split(v, ",") {
				add(s)
			}
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the
// first H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
