package transform

import (
	"html"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/starford/vaultport/internal/identity"
	"github.com/starford/vaultport/internal/markdown"
)

// DocumentExt is the extension of exported pages.
const DocumentExt = ".md"

var (
	checkboxRe = regexp.MustCompile(`^(\s*)-\s*\[\s*([xX]?)\s*\]\s*`)
	linkRe     = regexp.MustCompile(`(!?)\[([^\]]+)\]\(([^)]+)\)`)
	imageRe    = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	toggleRe   = regexp.MustCompile(`^\s*[▸▾►▼]\s+`)
	schemeRe   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

type callout struct {
	emoji    string
	category string
}

// Order matters: the first emoji found on the line wins. Emoji are stored
// without the U+FE0F presentation selector, which is stripped separately.
var callouts = []callout{
	{"\U0001F4A1", "tip"},
	{"\u26A0", "warning"},
	{"\u2757", "important"},
	{"\u2139", "info"},
	{"\U0001F4DD", "note"},
	{"\u2705", "success"},
	{"\u274C", "error"},
	{"\U0001F525", "danger"},
}

// SpaceHeadings inserts the missing space in "##Title" style headings.
func SpaceHeadings(body string) string {
	return markdown.MapLines(body, markdown.SpaceHeading)
}

// NormalizeLists adds the missing space after '-' and "N." markers and
// re-indents tab-indented lines to two spaces per tab.
func NormalizeLists(body string) string {
	return markdown.MapLines(body, func(line string) string {
		line = markdown.SpaceListMarker(line)
		if strings.HasPrefix(line, "\t") {
			rest := strings.TrimLeft(line, "\t")
			line = strings.Repeat("  ", len(line)-len(rest)) + rest
		}
		return line
	})
}

// NormalizeCheckboxes rewrites task markers to "- [ ]" or "- [x]".
func NormalizeCheckboxes(body string) string {
	return markdown.MapLines(body, func(line string) string {
		m := checkboxRe.FindStringSubmatchIndex(line)
		if m == nil {
			return line
		}
		indent := line[m[2]:m[3]]
		mark := " "
		if m[5] > m[4] {
			mark = "x"
		}
		rest := line[m[1]:]
		out := indent + "- [" + mark + "]"
		if rest != "" {
			out += " " + rest
		}
		return out
	})
}

// PadCodeFences ensures a blank line before an opening fence and after a
// closing fence when text is adjacent. Fenced content is untouched.
func PadCodeFences(body string) string {
	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines)+4)
	inFence := false
	for i, line := range lines {
		if !markdown.IsFence(line) {
			out = append(out, line)
			continue
		}
		inFence = !inFence
		if inFence {
			if len(out) > 0 && !markdown.IsBlank(out[len(out)-1]) {
				out = append(out, "")
			}
			out = append(out, line)
			continue
		}
		out = append(out, line)
		if i+1 < len(lines) && !markdown.IsBlank(lines[i+1]) {
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}

// ConvertCallouts turns a quote line carrying a known emoji into a
// "> [!category]" callout header. Following quote lines pass through.
func ConvertCallouts(body string) string {
	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines))
	mask := markdown.FenceMask(lines)
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if mask[i] || !isQuote(line) {
			out = append(out, line)
			continue
		}
		c, ok := findCallout(line)
		if !ok {
			out = append(out, line)
			continue
		}
		text := strings.TrimPrefix(strings.TrimSpace(line), ">")
		text = strings.ReplaceAll(text, c.emoji, "")
		text = strings.TrimSpace(strings.ReplaceAll(text, "\uFE0F", ""))
		out = append(out, "> [!"+c.category+"]")
		if text != "" {
			out = append(out, "> "+text)
		}
		for i+1 < len(lines) && isQuote(lines[i+1]) {
			i++
			out = append(out, lines[i])
		}
	}
	return strings.Join(out, "\n")
}

func isQuote(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), ">")
}

func findCallout(line string) (callout, bool) {
	for _, c := range callouts {
		if strings.Contains(line, c.emoji) {
			return c, true
		}
	}
	return callout{}, false
}

// RespaceTables rewrites table rows as "| cell | cell |".
func RespaceTables(body string) string {
	return markdown.MapLines(body, func(line string) string {
		if !markdown.IsTableRow(line) {
			return line
		}
		return markdown.FormatRow(markdown.SplitRow(line))
	})
}

// RetargetLinks rewrites links to exported pages as [[Stable Name]]. Web
// and non-page targets are left alone.
func RetargetLinks(body string, doc Doc) string {
	return linkRe.ReplaceAllStringFunc(body, func(match string) string {
		m := linkRe.FindStringSubmatch(match)
		if m[1] == "!" {
			return match
		}
		target := decodeTarget(m[3])
		if isWeb(target) || !strings.HasSuffix(strings.ToLower(target), DocumentExt) {
			return match
		}
		return "[[" + stableName(target, doc) + "]]"
	})
}

// stableName resolves target against the page's directory and returns the
// destination stem recorded in the mapping, or the resolved stem when the
// target is not part of the export.
func stableName(target string, doc Doc) string {
	resolved := path.Clean(path.Join(doc.Dir(), target))
	if doc.Mapping != nil {
		if dst, ok := doc.Mapping.Lookup(resolved); ok {
			return strings.TrimSuffix(path.Base(dst), path.Ext(dst))
		}
	}
	return identity.Stem(target)
}

// RetargetImages rewrites local images as ![[file.png]] embeds. The name is
// the attachment the asset was assigned, or the resolved final path
// segment when the asset is unknown. Web images are left alone.
func RetargetImages(body string, doc Doc) string {
	return imageRe.ReplaceAllStringFunc(body, func(match string) string {
		m := imageRe.FindStringSubmatch(match)
		target := decodeTarget(m[2])
		if isWeb(target) {
			return match
		}
		return "![[" + attachmentName(target, doc) + "]]"
	})
}

func attachmentName(target string, doc Doc) string {
	if doc.Assets != nil {
		if dest, ok := doc.Assets(path.Clean(path.Join(doc.Dir(), target))); ok {
			return path.Base(dest)
		}
	}
	return identity.DestPath(path.Base(target))
}

// ConvertToggles turns "▸ Title" blocks into <details> sections holding
// the indented lines that follow.
func ConvertToggles(body string) string {
	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines))
	mask := markdown.FenceMask(lines)
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		loc := toggleRe.FindStringIndex(line)
		if mask[i] || loc == nil {
			out = append(out, line)
			continue
		}
		out = append(out, "<details>", "<summary>"+line[loc[1]:]+"</summary>", "")

		var block []string
		for i+1 < len(lines) && isToggleContent(lines[i+1]) {
			i++
			block = append(block, lines[i])
		}
		for len(block) > 0 && markdown.IsBlank(block[len(block)-1]) {
			block = block[:len(block)-1]
		}
		out = append(out, dedent(block)...)
		out = append(out, "", "</details>", "")
	}
	return strings.Join(out, "\n")
}

func isToggleContent(line string) bool {
	return markdown.IsBlank(line) || strings.HasPrefix(line, "\t") || strings.HasPrefix(line, " ")
}

// dedent strips all leading tabs and spaces from every line.
func dedent(block []string) []string {
	out := make([]string, len(block))
	for i, l := range block {
		out[i] = strings.TrimLeft(l, " \t")
	}
	return out
}

// DecodeEntities replaces HTML character entities with literal characters.
func DecodeEntities(body string) string {
	return html.UnescapeString(body)
}

func decodeTarget(raw string) string {
	t := html.UnescapeString(strings.TrimSpace(raw))
	if dec, err := url.PathUnescape(t); err == nil {
		return dec
	}
	return strings.ReplaceAll(t, "%20", " ")
}

func isWeb(target string) bool {
	return schemeRe.MatchString(target) || strings.HasPrefix(target, "//")
}
