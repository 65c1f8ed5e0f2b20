package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveName_StripsSuffix(t *testing.T) {
	cases := map[string]string{
		"Project Plan 8a7b3c4d5e6f7g8h9i0j1k2l3m4n5o6p":  "Project Plan",
		"Meeting Notes 0123456789abcdef0123456789abcdef": "Meeting Notes",
		"Meeting Notes 0123456789ABCDEF0123456789ABCDEF": "Meeting Notes",
		"Roadmap 123e4567-e89b-12d3-a456-426614174000":   "Roadmap",
		"Roadmap 123E4567-E89B-12D3-A456-426614174000":   "Roadmap",
		"Plain Name":                             "Plain Name",
		"abcdefghijklmnopqrstuvwxyzabcdef":       "abcdefghijklmnopqrstuvwxyzabcdef",
		"Words abcdefghijklmnopqrstuvwxyzabcdef": "Words abcdefghijklmnopqrstuvwxyzabcdef",
		"Short 0123456789abcdef":                 "Short 0123456789abcdef",
	}
	for in, want := range cases {
		assert.Equal(t, want, ResolveName(in), "input %q", in)
	}
}

func TestResolveName_StripsOnlyOneSuffix(t *testing.T) {
	in := "Doc 0123456789abcdef0123456789abcdef 123e4567-e89b-12d3-a456-426614174000"
	assert.Equal(t, "Doc 0123456789abcdef0123456789abcdef", ResolveName(in))
}

func TestResolveName_Deterministic(t *testing.T) {
	in := "  Weird: name?  0123456789abcdef0123456789abcdef"
	first := ResolveName(in)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, ResolveName(in))
	}
	assert.Equal(t, "Weird- name-", first)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a-b-c-d-e-f-g-h-i", Sanitize(`a<b>c:d"e/f\g|h?i`))
	assert.Equal(t, "a b", Sanitize("a \t\n  b"))
	assert.Equal(t, "name", Sanitize(" ..name.. "))
	assert.Equal(t, Fallback, Sanitize(" . . "))
	assert.Equal(t, Fallback, Sanitize(""))
	long := strings.Repeat("é", 250)
	assert.Equal(t, 200, len([]rune(Sanitize(long))))
	assert.Equal(t, 100, len([]rune(SanitizeN(long, 100))))
}

func TestDestPath(t *testing.T) {
	assert.Equal(t, "Projects/Plan.md", DestPath("Projects/Plan 0123456789abcdef0123456789abcdef.md"))
	assert.Equal(t, "Top.md", DestPath("Top.md"))
	assert.Equal(t, "Work/Projects/Plan.md",
		DestPath("Work 0123456789abcdef0123456789abcdef/Projects/Plan 0123456789abcdef0123456789abcdef.md"))
	assert.Equal(t, "Work/Sub", DestDir("Work 0123456789abcdef0123456789abcdef/Sub"))
	assert.Equal(t, "", DestDir("."))
	assert.Equal(t, "Plan", Stem("x/Plan 0123456789abcdef0123456789abcdef.md"))
}

func TestBuildMapping(t *testing.T) {
	m := BuildMapping([]string{
		"b/Two 0123456789abcdef0123456789abcdef.md",
		"a/One.md",
	})
	require.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"a/One.md", "b/Two 0123456789abcdef0123456789abcdef.md"}, m.Sources())

	dst, ok := m.Lookup("b/Two 0123456789abcdef0123456789abcdef.md")
	require.True(t, ok)
	assert.Equal(t, "b/Two.md", dst)
	assert.Empty(t, m.Collisions())
}

func TestBuildMapping_CollisionLastWins(t *testing.T) {
	first := "Notes 0123456789abcdef0123456789abcdef.md"
	second := "Notes fedcba9876543210fedcba9876543210.md"
	m := BuildMapping([]string{second, first})

	owner, ok := m.Owner("Notes.md")
	require.True(t, ok)
	assert.Equal(t, second, owner, "lexically later source wins")

	cols := m.Collisions()
	require.Len(t, cols, 1)
	assert.Equal(t, first, cols[0].Previous)
	assert.Equal(t, second, cols[0].Winner)
}

func TestMapping_Delete(t *testing.T) {
	m := BuildMapping([]string{"a.md", "b.md"})
	m.Delete("a.md")
	_, ok := m.Lookup("a.md")
	assert.False(t, ok)
	_, ok = m.Owner("a.md")
	assert.False(t, ok)
	assert.Equal(t, []string{"b.md"}, m.Sources())
}
