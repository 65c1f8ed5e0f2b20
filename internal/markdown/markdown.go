// Package markdown holds the line-level Markdown primitives shared by the
// conversion passes and the style linter. It is not a parser: every helper
// looks at one line at a time.
package markdown

import (
	"regexp"
	"strings"
)

// Fence opens and closes fenced code blocks.
const Fence = "```"

var (
	headingRe     = regexp.MustCompile(`^(#{1,6})([^#\s])`)
	bulletRe      = regexp.MustCompile(`^(\s*)-([^\s-])`)
	orderedRe     = regexp.MustCompile(`^(\s*\d+\.)([^\s\d])`)
	listItemRe    = regexp.MustCompile(`^\s*(?:[-*+]|\d+\.)(?:\s|$)`)
	separatorCell = regexp.MustCompile(`^(:?)(-+)(:?)$`)
)

// IsFence reports whether line opens or closes a fenced code block.
func IsFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), Fence)
}

// IsBlank reports whether line holds only whitespace.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// MapLines applies fn to every line outside fenced code. Fence lines and
// fenced content pass through untouched.
func MapLines(text string, fn func(line string) string) string {
	lines := strings.Split(text, "\n")
	inFence := false
	for i, line := range lines {
		if IsFence(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		lines[i] = fn(line)
	}
	return strings.Join(lines, "\n")
}

// FenceMask returns, per line, whether it is a fence line or inside a fence.
func FenceMask(lines []string) []bool {
	mask := make([]bool, len(lines))
	inFence := false
	for i, line := range lines {
		if IsFence(line) {
			inFence = !inFence
			mask[i] = true
			continue
		}
		mask[i] = inFence
	}
	return mask
}

// SpaceHeading inserts one space after a leading run of 1-6 '#' when it is
// followed directly by text.
func SpaceHeading(line string) string {
	return headingRe.ReplaceAllString(line, "$1 $2")
}

// HeadingNeedsSpace reports whether SpaceHeading would change line.
func HeadingNeedsSpace(line string) bool {
	return headingRe.MatchString(line)
}

// SpaceListMarker inserts a space after a '-' bullet or "N." marker that is
// followed directly by text. Runs of dashes and decimals are left alone.
func SpaceListMarker(line string) string {
	line = bulletRe.ReplaceAllString(line, "$1- $2")
	return orderedRe.ReplaceAllString(line, "$1 $2")
}

// ListMarkerNeedsSpace reports whether SpaceListMarker would change line.
func ListMarkerNeedsSpace(line string) bool {
	return bulletRe.MatchString(line) || orderedRe.MatchString(line)
}

// IsListItem reports whether line is a bullet or ordered list item. A
// bare marker with no text is an empty item.
func IsListItem(line string) bool {
	return listItemRe.MatchString(line)
}

// IsThematicBreak reports whether line is a horizontal rule such as
// "---", "* * *" or "___".
func IsThematicBreak(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return false
	}
	marker := t[0]
	if marker != '-' && marker != '*' && marker != '_' {
		return false
	}
	count := 0
	for i := 0; i < len(t); i++ {
		switch t[i] {
		case marker:
			count++
		case ' ', '\t':
		default:
			return false
		}
	}
	return count >= 3
}

// IsTableRow reports whether line, once trimmed, starts with a pipe.
func IsTableRow(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "|")
}

// SplitRow splits a table row on unescaped pipes, trims every cell and
// drops the empty leading and trailing cells produced by the row's own
// delimiting pipes.
func SplitRow(line string) []string {
	t := strings.TrimSpace(line)
	var cells []string
	var cur strings.Builder
	for i := 0; i < len(t); i++ {
		c := t[i]
		if c == '\\' && i+1 < len(t) && t[i+1] == '|' {
			cur.WriteString(`\|`)
			i++
			continue
		}
		if c == '|' {
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	cells = append(cells, strings.TrimSpace(cur.String()))

	if len(cells) > 0 && cells[0] == "" && strings.HasPrefix(t, "|") {
		cells = cells[1:]
	}
	if len(cells) > 0 && cells[len(cells)-1] == "" && strings.HasSuffix(t, "|") && !strings.HasSuffix(t, `\|`) {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// FormatRow joins cells as "| a | b |". Empty cells render as "| |".
func FormatRow(cells []string) string {
	if len(cells) == 0 {
		return "|"
	}
	var b strings.Builder
	b.WriteByte('|')
	for _, c := range cells {
		if c == "" {
			b.WriteString(" |")
			continue
		}
		b.WriteByte(' ')
		b.WriteString(c)
		b.WriteString(" |")
	}
	return b.String()
}

// IsSeparatorRow reports whether every non-empty cell matches :?-+:? and
// at least one cell is non-empty.
func IsSeparatorRow(cells []string) bool {
	seen := false
	for _, c := range cells {
		if c == "" {
			continue
		}
		if !separatorCell.MatchString(c) {
			return false
		}
		seen = true
	}
	return seen
}

// PadSeparator widens every separator cell to at least three dashes,
// keeping alignment colons.
func PadSeparator(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		m := separatorCell.FindStringSubmatch(c)
		if m == nil {
			out[i] = c
			continue
		}
		dashes := m[2]
		if len(dashes) < 3 {
			dashes = strings.Repeat("-", 3)
		}
		out[i] = m[1] + dashes + m[3]
	}
	return out
}
