package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/starford/vaultport/internal/models"
)

func TestExtract_ScalarsAndList(t *testing.T) {
	text := "---\ntitle: Hello\ntags:\n  - go\n  - notes\nstatus: draft\n---\n# Hello\nBody\n"
	fm, body := Extract(text)
	require.NotNil(t, fm)
	assert.Equal(t, []string{"title", "tags", "status"}, fm.Keys())

	v, _ := fm.Get("title")
	assert.Equal(t, models.Text("Hello"), v)
	v, _ = fm.Get("tags")
	assert.Equal(t, []string{"go", "notes"}, v.List)
	assert.Equal(t, "# Hello\nBody\n", body)
}

func TestExtract_NoMarker(t *testing.T) {
	text := "# Title\n---\nkey: value\n---\n"
	fm, body := Extract(text)
	assert.Nil(t, fm)
	assert.Equal(t, text, body)
}

func TestExtract_UnclosedMarker(t *testing.T) {
	text := "---\nkey: value\nno close"
	fm, body := Extract(text)
	assert.Nil(t, fm)
	assert.Equal(t, text, body)
}

func TestParse_ListCommittedOnNextKey(t *testing.T) {
	fm := Parse([]string{"a:", "- one", "  - two", "b: x", "c:"})
	assert.Equal(t, []string{"a", "b"}, fm.Keys(), "key with no items is not committed")
	v, _ := fm.Get("a")
	assert.Equal(t, []string{"one", "two"}, v.List)
}

func TestParse_SplitsOnFirstColon(t *testing.T) {
	fm := Parse([]string{"url: https://example.com:8080/x"})
	v, _ := fm.Get("url")
	assert.Equal(t, "https://example.com:8080/x", v.Text)
}

func TestParse_FlowSequence(t *testing.T) {
	fm := Parse([]string{
		"tags: [a, b]",
		`aliases: ['x', "y, z", 'it''s']`,
		"empty: []",
		"link: [[Page]]",
	})
	v, _ := fm.Get("tags")
	assert.Equal(t, models.List([]string{"a", "b"}), v)
	v, _ = fm.Get("aliases")
	assert.Equal(t, []string{"x", "y, z", "it's"}, v.List)
	v, _ = fm.Get("empty")
	assert.Equal(t, models.KindList, v.Kind)
	assert.Empty(t, v.List)
	v, _ = fm.Get("link")
	assert.Equal(t, models.Text("[[Page]]"), v)
}

func TestRoundTrip_FlowSequenceBecomesBlockList(t *testing.T) {
	fm, _ := Extract("---\ntags: [a, b]\naliases: ['x: y']\n---\nBody\n")
	require.NotNil(t, fm)
	assert.Equal(t, "---\ntags:\n  - a\n  - b\naliases:\n  - \"x: y\"\n---\n\n", fm.Serialize())

	block, _, ok := Split(fm.Serialize())
	require.True(t, ok)
	var out map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(joinLines(block)), &out))
	assert.Equal(t, []any{"a", "b"}, out["tags"])
	assert.Equal(t, []any{"x: y"}, out["aliases"])
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "plain value", Quote("plain value"))
	assert.Equal(t, `"a: b"`, Quote("a: b"))
	assert.Equal(t, `"say \"hi\" #now"`, Quote(`say "hi" #now`))
	for _, c := range []string{":", "#", "[", "]", "{", "}", ",", "&", "*", "!", "|", ">", "@", "`"} {
		assert.True(t, NeedsQuoting("x"+c), "char %q", c)
	}
}

func TestSerialize_Format(t *testing.T) {
	fm := New()
	fm.Set("title", models.Text("Plan: Q1"))
	fm.Set("done", models.Bool(false))
	fm.Set("count", models.Int(3))
	fm.Set("tags", models.List([]string{"a", "b"}))
	fm.Set("missing", models.Absent())

	want := "---\ntitle: \"Plan: Q1\"\ndone: false\ncount: 3\ntags:\n  - a\n  - b\n---\n\n"
	assert.Equal(t, want, fm.Serialize())
}

func TestRoundTrip(t *testing.T) {
	fm := New()
	fm.Set("title", models.Text("Weekly review"))
	fm.Set("aliases", models.List([]string{"review", "weekly"}))
	fm.Set("source", models.Text("notion"))
	fm.Set("tags", models.List([]string{"one"}))

	got, body := Extract(fm.Serialize() + "body")
	require.NotNil(t, got)
	assert.True(t, fm.Equal(got), "round trip mismatch: %v", got.Keys())
	assert.Equal(t, "\nbody", body)
}

func TestRoundTrip_QuotedValues(t *testing.T) {
	fm := New()
	fm.Set("title", models.Text(`He said "go": now`))
	got, _ := Extract(fm.Serialize())
	v, _ := got.Get("title")
	assert.Equal(t, `He said "go": now`, v.Text)
}

func TestSerialize_IsValidYAML(t *testing.T) {
	fm := New()
	fm.Set("title", models.Text("Plan: Q1 & more"))
	fm.Set("tags", models.List([]string{"database-item"}))
	fm.Set("done", models.Bool(true))

	block, _, ok := Split(fm.Serialize())
	require.True(t, ok)
	var out map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(joinLines(block)), &out))
	assert.Equal(t, "Plan: Q1 & more", out["title"])
	assert.Equal(t, true, out["done"])
	assert.Equal(t, []any{"database-item"}, out["tags"])
}

func TestCompose(t *testing.T) {
	assert.Equal(t, "body", Compose(nil, "body"))
	fm := New()
	fm.Set("a", models.Text("b"))
	assert.Equal(t, "---\na: b\n---\n\nbody", Compose(fm, "\n\nbody"))
}

func TestDelete(t *testing.T) {
	fm := New()
	fm.Set("a", models.Text("1"))
	fm.Set("b", models.Text("2"))
	fm.Delete("a")
	assert.Equal(t, []string{"b"}, fm.Keys())
	fm.Set("a", models.Text("3"))
	assert.Equal(t, []string{"b", "a"}, fm.Keys())
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}
