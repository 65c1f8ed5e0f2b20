package linter

import (
	"regexp"
	"strings"
)

var (
	listPrefixRe = regexp.MustCompile(`^\s*(?:[-*+]|\d+\.)\s+`)
	bracketRe    = regexp.MustCompile(`\[([^\[\]]*)\]`)
	parenRe      = regexp.MustCompile(`\(([^()]*)\)`)
)

// mapInline applies fn to the parts of line outside inline code spans,
// after any leading list marker.
func mapInline(line string, fn func(string) string) string {
	prefix := listPrefixRe.FindString(line)
	parts := strings.Split(line[len(prefix):], "`")
	for i := 0; i < len(parts); i += 2 {
		parts[i] = fn(parts[i])
	}
	return prefix + strings.Join(parts, "`")
}

// trimBrackets strips whitespace just inside innermost [...] and (...)
// pairs. Blank interiors such as the "[ ]" task marker are kept.
func trimBrackets(s string) string {
	s = trimEnclosed(bracketRe, s, "[", "]")
	return trimEnclosed(parenRe, s, "(", ")")
}

func trimEnclosed(re *regexp.Regexp, s, open, close string) string {
	return re.ReplaceAllStringFunc(s, func(m string) string {
		inner := m[len(open) : len(m)-len(close)]
		if strings.TrimSpace(inner) == "" {
			return m
		}
		return open + strings.TrimSpace(inner) + close
	})
}

// trimEmphasis strips whitespace just inside bold and italic pairs.
func trimEmphasis(s string) string {
	s = trimMarkerPairs(s, '*', 2)
	s = trimMarkerPairs(s, '_', 2)
	s = trimMarkerPairs(s, '*', 1)
	return trimMarkerPairs(s, '_', 1)
}

type markerRun struct {
	start, end int
}

// markerRuns finds unescaped runs of exactly size copies of c. Underscore
// runs inside a word are skipped.
func markerRuns(s string, c byte, size int) []markerRun {
	var runs []markerRun
	for i := 0; i < len(s); {
		if s[i] != c || (i > 0 && s[i-1] == '\\') {
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] == c {
			j++
		}
		if j-i == size && !(c == '_' && isWordByte(s, i-1) && isWordByte(s, j)) {
			runs = append(runs, markerRun{start: i, end: j})
		}
		i = j
	}
	return runs
}

// trimMarkerPairs pairs runs left to right and trims each pair's
// interior. A side is kept when trimming would glue the marker to another
// marker or turn an underscore into an intraword one, so the run layout
// is the same on every pass.
func trimMarkerPairs(s string, c byte, size int) string {
	runs := markerRuns(s, c, size)
	if len(runs) < 2 {
		return s
	}
	var b strings.Builder
	last := 0
	for k := 0; k+1 < len(runs); k += 2 {
		open, close := runs[k], runs[k+1]
		inner := s[open.end:close.start]
		if strings.TrimSpace(inner) == "" {
			continue
		}
		trimmed := inner
		if left := strings.TrimLeft(trimmed, " \t"); left[0] != c && !(c == '_' && isWordByte(s, open.start-1)) {
			trimmed = left
		}
		if right := strings.TrimRight(trimmed, " \t"); right[len(right)-1] != c && !(c == '_' && isWordByte(s, close.end)) {
			trimmed = right
		}
		b.WriteString(s[last:open.end])
		b.WriteString(trimmed)
		last = close.start
	}
	b.WriteString(s[last:])
	return b.String()
}

// isWordByte reports whether s[i] is a letter, digit or part of a
// multi-byte character. Out-of-range indexes are not word bytes.
func isWordByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	b := s[i]
	return b >= 0x80 || b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
