// Package linter normalizes converted notes against the vault house style.
//
// Every pass is idempotent and the full sequence is too: linting already
// linted text returns it unchanged. Fenced code is never rewritten except
// for trailing whitespace and blank-line capping.
package linter

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/starford/vaultport/internal/markdown"
)

var (
	taskRe       = regexp.MustCompile(`^(\s*-\s+\[[ xX]\])([^\s(])`)
	altBulletRe  = regexp.MustCompile(`^(\s*)[*+](\s)`)
	tableSepOnly = regexp.MustCompile(`^[\s|:-]+$`)
)

// Linter applies the configured passes in a fixed order.
type Linter struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Linter. A nil logger discards output.
func New(cfg Config, logger *slog.Logger) *Linter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.LimitBlankLines && cfg.MaxBlankLines < 1 {
		cfg.MaxBlankLines = DefaultMaxBlankLines
	}
	return &Linter{cfg: cfg, logger: logger}
}

// Config returns the active configuration.
func (l *Linter) Config() Config { return l.cfg }

// maxPasses bounds how often Lint reapplies its passes.
const maxPasses = 8

// Lint returns content rewritten to the house style. Empty input is
// returned as is. The passes are repeated until the text stops changing,
// so the result is a fixed point and linting it again is a no-op.
func (l *Linter) Lint(content string) string {
	for i := 0; i < maxPasses; i++ {
		next := l.lintOnce(content)
		if next == content {
			return next
		}
		content = next
	}
	l.logger.Debug("lint: passes did not settle", slog.Int("passes", maxPasses))
	return content
}

func (l *Linter) lintOnce(content string) string {
	if content == "" {
		return content
	}
	content = standardizeLineEndings(content)

	head, body, ok := splitFrontmatter(content)
	if ok && l.cfg.StandardizeFrontmatter {
		head = formatFrontmatter(head)
		body = trimLeadingBlankLines(body)
	}

	lines := strings.Split(body, "\n")
	if l.cfg.SpaceAfterHeading {
		lines = mapOutsideFences(lines, markdown.SpaceHeading)
	}
	if l.cfg.ConsistentListStyle {
		lines = mapOutsideFences(lines, unifyBullet)
	}
	if l.cfg.SpaceAfterListMarker {
		lines = mapOutsideFences(lines, spaceListMarker)
	}
	if l.cfg.EnsureListSpacing {
		lines = padLists(lines)
	}
	if l.cfg.FixTableFormatting {
		lines = formatTables(lines)
	}
	if l.cfg.FixLinkSpacing {
		lines = mapOutsideFences(lines, func(s string) string { return mapInline(s, trimBrackets) })
	}
	if l.cfg.FixEmphasis {
		lines = mapOutsideFences(lines, func(s string) string { return mapInline(s, trimEmphasis) })
	}
	if l.cfg.RemoveMultipleSpaces {
		lines = mapOutsideFences(lines, collapseSpaces)
	}
	body = strings.Join(lines, "\n")

	if ok {
		switch {
		case !l.cfg.StandardizeFrontmatter:
			content = head + "\n" + body
		case body == "":
			content = head
		default:
			content = head + "\n\n" + body
		}
	} else {
		content = body
	}

	lines = strings.Split(content, "\n")
	if l.cfg.TrimTrailingWhitespace {
		for i, line := range lines {
			lines[i] = strings.TrimRight(line, " \t")
		}
	}
	if l.cfg.LimitBlankLines {
		lines = capBlankLines(lines, l.cfg.MaxBlankLines)
	}
	content = strings.Join(lines, "\n")

	if l.cfg.EnsureFinalNewline {
		content = strings.TrimRight(content, "\n") + "\n"
	}
	return content
}

// Changed reports whether Lint would rewrite content.
func (l *Linter) Changed(content string) bool {
	return l.Lint(content) != content
}

func standardizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// splitFrontmatter separates a leading marker-delimited block. head holds
// both marker lines; body starts after the closing marker's newline.
func splitFrontmatter(content string) (head, body string, ok bool) {
	lines := strings.Split(content, "\n")
	if len(lines) < 2 || strings.TrimRight(lines[0], " \t") != "---" {
		return "", content, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[:i+1], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return "", content, false
}

// formatFrontmatter drops blank lines and normalizes "key:value" spacing.
func formatFrontmatter(head string) string {
	lines := strings.Split(head, "\n")
	out := []string{"---"}
	for _, line := range lines[1 : len(lines)-1] {
		line = strings.TrimRight(line, " \t")
		t := strings.TrimSpace(line)
		switch {
		case t == "":
			continue
		case strings.HasPrefix(t, "#"), strings.HasPrefix(t, "-"), !strings.Contains(t, ":"):
			out = append(out, line)
		default:
			key, value, _ := strings.Cut(t, ":")
			key, value = strings.TrimSpace(key), strings.TrimSpace(value)
			if value == "" {
				out = append(out, key+":")
				continue
			}
			out = append(out, key+": "+value)
		}
	}
	return strings.Join(append(out, "---"), "\n")
}

func trimLeadingBlankLines(body string) string {
	lines := strings.Split(body, "\n")
	for len(lines) > 0 && markdown.IsBlank(lines[0]) {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

func mapOutsideFences(lines []string, fn func(string) string) []string {
	mask := markdown.FenceMask(lines)
	for i, line := range lines {
		if !mask[i] {
			lines[i] = fn(line)
		}
	}
	return lines
}

func spaceListMarker(line string) string {
	line = markdown.SpaceListMarker(line)
	return taskRe.ReplaceAllString(line, "$1 $2")
}

// unifyBullet rewrites '*' and '+' bullets to '-'. Thematic breaks such as
// "* * *" are left alone.
func unifyBullet(line string) string {
	if markdown.IsThematicBreak(line) {
		return line
	}
	return altBulletRe.ReplaceAllString(line, "$1-$2")
}

// padLists surrounds each run of list items with blank lines when it is
// adjacent to other text. Indented lines directly after an item are
// treated as continuation.
func padLists(lines []string) []string {
	mask := markdown.FenceMask(lines)
	isItem := func(i int) bool {
		return !mask[i] && markdown.IsListItem(lines[i]) && !markdown.IsThematicBreak(lines[i])
	}
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		item := isItem(i)
		if item && i > 0 && !isItem(i-1) && !markdown.IsBlank(lines[i-1]) && !isContinuation(lines[i-1]) {
			out = append(out, "")
		}
		out = append(out, line)
		if item && i+1 < len(lines) && !isItem(i+1) && !markdown.IsBlank(lines[i+1]) && !isContinuation(lines[i+1]) {
			out = append(out, "")
		}
	}
	return out
}

func isContinuation(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

// formatTables re-spaces table rows, pads separator rows and forces a
// blank line after each table.
func formatTables(lines []string) []string {
	mask := markdown.FenceMask(lines)
	out := make([]string, 0, len(lines))
	inTable := false
	for i, line := range lines {
		if !mask[i] && markdown.IsTableRow(line) {
			inTable = true
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			cells := markdown.SplitRow(line)
			if markdown.IsSeparatorRow(cells) {
				cells = markdown.PadSeparator(cells)
			}
			out = append(out, indent+markdown.FormatRow(cells))
			continue
		}
		if inTable {
			inTable = false
			if !markdown.IsBlank(line) {
				out = append(out, "")
			}
		}
		out = append(out, line)
	}
	return out
}

// collapseSpaces squeezes interior runs of spaces, keeping indentation.
// Separator-only lines are left alone.
func collapseSpaces(line string) string {
	rest := strings.TrimLeft(line, " ")
	if tableSepOnly.MatchString(rest) {
		return line
	}
	indent := line[:len(line)-len(rest)]
	for strings.Contains(rest, "  ") {
		rest = strings.ReplaceAll(rest, "  ", " ")
	}
	return indent + rest
}

// capBlankLines limits runs of blank lines to max.
func capBlankLines(lines []string, max int) []string {
	out := make([]string, 0, len(lines))
	run := 0
	for _, line := range lines {
		if markdown.IsBlank(line) {
			run++
			if run > max {
				continue
			}
		} else {
			run = 0
		}
		out = append(out, line)
	}
	return out
}
