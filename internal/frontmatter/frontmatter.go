// Package frontmatter extracts and serializes the simple key/value-or-list
// metadata block delimited by "---" lines at the head of a note.
package frontmatter

import (
	"strings"

	"github.com/starford/vaultport/internal/models"
)

// Marker delimits the frontmatter block.
const Marker = "---"

// Frontmatter is an ordered mapping with unique keys.
type Frontmatter struct {
	keys   []string
	values map[string]models.Value
}

// New returns an empty Frontmatter.
func New() *Frontmatter {
	return &Frontmatter{values: make(map[string]models.Value)}
}

// Set assigns key. An existing key keeps its position.
func (f *Frontmatter) Set(key string, v models.Value) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

// Get returns the value for key, or an absent value.
func (f *Frontmatter) Get(key string) (models.Value, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Delete removes key.
func (f *Frontmatter) Delete(key string) {
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			return
		}
	}
}

// Keys returns keys in insertion order.
func (f *Frontmatter) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of keys.
func (f *Frontmatter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Equal reports whether both mappings hold the same keys, order and values.
func (f *Frontmatter) Equal(o *Frontmatter) bool {
	if f.Len() != o.Len() {
		return false
	}
	for i, k := range f.keys {
		if o.keys[i] != k || !f.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}

// Extract splits text into frontmatter and body. Frontmatter is present
// only when the first line is the marker and a closing marker line follows;
// otherwise fm is nil and body is the full text.
func Extract(text string) (fm *Frontmatter, body string) {
	block, body, ok := Split(text)
	if !ok {
		return nil, text
	}
	return Parse(block), body
}

// Split returns the raw frontmatter lines and the body.
func Split(text string) (block []string, body string, ok bool) {
	lines := strings.Split(text, "\n")
	if !isMarker(lines[0]) {
		return nil, text, false
	}
	for i := 1; i < len(lines); i++ {
		if isMarker(lines[i]) {
			return lines[1:i], strings.Join(lines[i+1:], "\n"), true
		}
	}
	return nil, text, false
}

func isMarker(line string) bool {
	return strings.TrimRight(line, " \t\r") == Marker
}

// Parse reads frontmatter lines. A "key: value" line with a value assigns a
// scalar, or a list when the value is a flow sequence such as "[a, b]";
// with no value the key collects the "- item" lines that follow.
// A list is committed when the next key starts or the block ends.
func Parse(lines []string) *Frontmatter {
	f := New()
	var (
		current string
		items   []string
		pending bool
	)
	commit := func() {
		if pending && len(items) > 0 {
			f.Set(current, models.List(items))
		}
		items = nil
		pending = false
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "-") {
			if pending {
				items = append(items, unquote(strings.TrimSpace(trimmed[1:])))
			}
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, found := strings.Cut(trimmed, ":")
		if !found {
			continue
		}
		commit()
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		current = key
		if items, ok := parseFlowList(value); ok {
			f.Set(key, models.List(items))
			continue
		}
		if value != "" {
			f.Set(key, models.Text(unquote(value)))
			continue
		}
		pending = true
	}
	commit()
	return f
}

// parseFlowList splits a one-level flow sequence on commas outside
// quotes. Nested brackets such as "[[Page]]" are not sequences.
func parseFlowList(value string) ([]string, bool) {
	if len(value) < 2 || value[0] != '[' || value[len(value)-1] != ']' {
		return nil, false
	}
	inner := value[1 : len(value)-1]
	if strings.HasPrefix(strings.TrimSpace(inner), "[") {
		return nil, false
	}
	items := []string{}
	var cur strings.Builder
	var quote byte
	flush := func() {
		if item := unquote(strings.TrimSpace(cur.String())); item != "" {
			items = append(items, item)
		}
		cur.Reset()
	}
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case quote == '"' && c == '\\' && i+1 < len(inner):
			cur.WriteByte(c)
			i++
			c = inner[i]
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ',':
			flush()
			continue
		}
		cur.WriteByte(c)
	}
	flush()
	return items, true
}

// unquote strips one level of double or single quotes written by Quote.
func unquote(s string) string {
	if len(s) >= 2 {
		switch {
		case s[0] == '"' && s[len(s)-1] == '"':
			return strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
		case s[0] == '\'' && s[len(s)-1] == '\'':
			return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
		}
	}
	return s
}
