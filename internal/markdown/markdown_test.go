package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpaceHeading(t *testing.T) {
	assert.Equal(t, "## Title", SpaceHeading("##Title"))
	assert.Equal(t, "###### Already spaced", SpaceHeading("###### Already spaced"))
	assert.Equal(t, "#######x", SpaceHeading("#######x"))
	assert.Equal(t, "#", SpaceHeading("#"))
	assert.Equal(t, " ##x", SpaceHeading(" ##x"), "only at line start")
}

func TestSpaceListMarker(t *testing.T) {
	assert.Equal(t, "- item", SpaceListMarker("-item"))
	assert.Equal(t, "  - nested", SpaceListMarker("  -nested"))
	assert.Equal(t, "- item", SpaceListMarker("- item"))
	assert.Equal(t, "---", SpaceListMarker("---"))
	assert.Equal(t, "1. first", SpaceListMarker("1.first"))
	assert.Equal(t, "1.5 million", SpaceListMarker("1.5 million"))
}

func TestIsThematicBreak(t *testing.T) {
	for _, s := range []string{"---", "* * *", "___", " - - - "} {
		assert.True(t, IsThematicBreak(s), s)
	}
	for _, s := range []string{"--", "- a", "", "*-*"} {
		assert.False(t, IsThematicBreak(s), s)
	}
}

func TestSplitRow(t *testing.T) {
	assert.Equal(t, []string{"Column 1", "Column 2"}, SplitRow("|Column 1|Column 2 |"))
	assert.Equal(t, []string{"a", "", "c"}, SplitRow("| a || c |"))
	assert.Equal(t, []string{`a \| b`, "c"}, SplitRow(`| a \| b | c |`))
	assert.Equal(t, []string{"a", "b"}, SplitRow("| a | b"))
}

func TestFormatRow(t *testing.T) {
	assert.Equal(t, "| Column 1 | Column 2 |", FormatRow(SplitRow("|Column 1|Column 2 |")))
	assert.Equal(t, "| a | | c |", FormatRow([]string{"a", "", "c"}))
}

func TestSeparator(t *testing.T) {
	cells := SplitRow("|-|:-:|--:|")
	assert.True(t, IsSeparatorRow(cells))
	assert.Equal(t, []string{"---", ":---:", "---:"}, PadSeparator(cells))
	assert.False(t, IsSeparatorRow([]string{"", ""}))
	assert.False(t, IsSeparatorRow([]string{"---", "x"}))
}

func TestMapLines_SkipsFences(t *testing.T) {
	in := "#a\n```\n#b\n```\n#c"
	out := MapLines(in, SpaceHeading)
	assert.Equal(t, "# a\n```\n#b\n```\n# c", out)
}

func TestFenceMask(t *testing.T) {
	mask := FenceMask([]string{"a", "```", "b", "```", "c"})
	assert.Equal(t, []bool{false, true, true, true, false}, mask)
}
