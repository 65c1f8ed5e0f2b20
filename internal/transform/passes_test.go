package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starford/vaultport/internal/identity"
)

func TestSpaceHeadings(t *testing.T) {
	in := "#Title\n```\n#not a heading\n```\n## Fine"
	want := "# Title\n```\n#not a heading\n```\n## Fine"
	assert.Equal(t, want, SpaceHeadings(in))
}

func TestNormalizeLists(t *testing.T) {
	in := "-one\n\t-two\n\t\t- three\n1.first\n---"
	want := "- one\n  - two\n    - three\n1. first\n---"
	assert.Equal(t, want, NormalizeLists(in))
}

func TestNormalizeCheckboxes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"- [ ] Task", "- [ ] Task"},
		{"-[X]Done", "- [x] Done"},
		{"  - [  ] nested", "  - [ ] nested"},
		{"- []", "- [ ]"},
		{"- plain item", "- plain item"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCheckboxes(tt.in), tt.in)
	}
}

func TestPadCodeFences(t *testing.T) {
	in := "Intro\n```go\nx := 1\n```\nOutro"
	want := "Intro\n\n```go\nx := 1\n```\n\nOutro"
	got := PadCodeFences(in)
	assert.Equal(t, want, got)
	assert.Equal(t, got, PadCodeFences(got), "idempotent")
}

func TestConvertCallouts(t *testing.T) {
	in := "> 💡 Remember this\n> second line\nafter"
	want := "> [!tip]\n> Remember this\n> second line\nafter"
	assert.Equal(t, want, ConvertCallouts(in))

	assert.Equal(t, "> [!warning]\n> Careful", ConvertCallouts("> ⚠️ Careful"))
	assert.Equal(t, "> [!note]", ConvertCallouts("> 📝"))
	assert.Equal(t, "> just a quote", ConvertCallouts("> just a quote"))
}

func TestConvertCalloutsKeepsInnerMarkers(t *testing.T) {
	assert.Equal(t, "> [!info]\n> a > b", ConvertCallouts("> ℹ️ a > b"))
}

func TestRespaceTables(t *testing.T) {
	in := "|Column 1|Column 2 |\n|---|---|\n|a||"
	want := "| Column 1 | Column 2 |\n| --- | --- |\n| a | |"
	assert.Equal(t, want, RespaceTables(in))
}

func TestRetargetLinks(t *testing.T) {
	m := identity.NewMapping()
	m.Set("Projects/Roadmap 1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d.md", "Projects/Roadmap.md")

	doc := Doc{Path: "Projects/Index.md", Mapping: m}
	in := "See [the roadmap](Roadmap%201a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d.md) and [site](https://example.com/a.md)."
	want := "See [[Roadmap]] and [site](https://example.com/a.md)."
	assert.Equal(t, want, RetargetLinks(in, doc))
}

func TestRetargetLinksUnknownTarget(t *testing.T) {
	doc := Doc{Path: "Index.md", Mapping: identity.NewMapping()}
	got := RetargetLinks("[x](Other%20Page%201a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d.md)", doc)
	assert.Equal(t, "[[Other Page]]", got)
}

func TestRetargetLinksSkipsImagesAndAssets(t *testing.T) {
	doc := Doc{Path: "Index.md"}
	in := "![pic](img.md) [pdf](file.pdf)"
	assert.Equal(t, in, RetargetLinks(in, doc))
}

func TestRetargetImages(t *testing.T) {
	in := "![alt](Page/Screen%20Shot.png) ![web](https://x.test/a.png)"
	want := "![[Screen Shot.png]] ![web](https://x.test/a.png)"
	assert.Equal(t, want, RetargetImages(in, Doc{Path: "Index.md"}))
}

func TestRetargetImages_UsesAssignedAttachment(t *testing.T) {
	assigned := map[string]string{
		"a/pic.png":     "attachments/pic.png",
		"b/pic.png":     "attachments/pic_1.png",
		"b/sub/one.png": "attachments/one.png",
	}
	doc := Doc{Path: "b/Page.md", Assets: func(rel string) (string, bool) {
		dest, ok := assigned[rel]
		return dest, ok
	}}
	in := "![x](pic.png) ![y](../a/pic.png) ![z](sub/one.png) ![w](other.png)"
	want := "![[pic_1.png]] ![[pic.png]] ![[one.png]] ![[other.png]]"
	assert.Equal(t, want, RetargetImages(in, doc))
}

func TestConvertToggles(t *testing.T) {
	in := strings.Join([]string{
		"▸ More details",
		"    hidden line",
		"      deeper",
		"",
		"Visible",
	}, "\n")
	want := strings.Join([]string{
		"<details>",
		"<summary>More details</summary>",
		"",
		"hidden line",
		"deeper",
		"",
		"</details>",
		"",
		"Visible",
	}, "\n")
	assert.Equal(t, want, ConvertToggles(in))
}

func TestConvertToggles_MixedIndent(t *testing.T) {
	got := ConvertToggles("▸ Mixed\n\tTabbed\n  two spaces\n \t both\nAfter")
	want := "<details>\n<summary>Mixed</summary>\n\nTabbed\ntwo spaces\nboth\n\n</details>\n\nAfter"
	assert.Equal(t, want, got)
}

func TestDecodeEntities(t *testing.T) {
	assert.Equal(t, `a & b <c> "d"`, DecodeEntities("a &amp; b &lt;c&gt; &quot;d&quot;"))
}
