package frontmatter

import (
	"strings"

	"github.com/starford/vaultport/internal/models"
)

const specialChars = ":#[]{},&*!|>@`"

// NeedsQuoting reports whether s contains a character that must be quoted
// in a scalar value.
func NeedsQuoting(s string) bool {
	return strings.ContainsAny(s, specialChars)
}

// Quote returns s double-quoted with inner quotes escaped when it contains
// a special character, or s unchanged otherwise.
func Quote(s string) string {
	if !NeedsQuoting(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// FormatValue renders the right-hand side of a scalar line.
func FormatValue(v models.Value) string {
	if v.Kind == models.KindText {
		return Quote(v.Text)
	}
	return v.String()
}

// Lines renders the block content without markers. Absent values and
// empty lists are omitted.
func (f *Frontmatter) Lines() []string {
	var out []string
	for _, k := range f.keys {
		v := f.values[k]
		switch v.Kind {
		case models.KindAbsent:
			continue
		case models.KindList:
			if len(v.List) == 0 {
				continue
			}
			out = append(out, k+":")
			for _, item := range v.List {
				out = append(out, "  - "+Quote(item))
			}
		default:
			out = append(out, k+": "+FormatValue(v))
		}
	}
	return out
}

// Serialize renders the block between two marker lines followed by exactly
// one blank line.
func (f *Frontmatter) Serialize() string {
	var b strings.Builder
	b.WriteString(Marker + "\n")
	for _, line := range f.Lines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(Marker + "\n\n")
	return b.String()
}

// Compose prepends the serialized frontmatter to body. A nil or empty
// frontmatter yields body unchanged.
func Compose(f *Frontmatter, body string) string {
	if f.Len() == 0 {
		return body
	}
	return f.Serialize() + strings.TrimLeft(body, "\n")
}
