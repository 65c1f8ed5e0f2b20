package linter

import (
	"fmt"
	"strings"

	"github.com/starford/vaultport/internal/markdown"
)

// Issue messages reported by Validate.
const (
	IssueTrailingWhitespace = "Trailing whitespace"
	IssueTab                = "Tab character found (use spaces)"
	IssueHeadingSpace       = "Heading missing space after #"
	IssueListMarkerSpace    = "List item missing space after marker"
)

// Issue is a single finding, with a 1-based line number.
type Issue struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

// Validate reports style issues without modifying content. Fenced code
// and the frontmatter block are only checked for trailing whitespace.
func Validate(content string) []Issue {
	lines := strings.Split(standardizeLineEndings(content), "\n")
	mask := markdown.FenceMask(lines)
	if head, _, ok := splitFrontmatter(strings.Join(lines, "\n")); ok {
		for i := range strings.Count(head, "\n") + 1 {
			mask[i] = true
		}
	}

	var issues []Issue
	for i, line := range lines {
		n := i + 1
		if strings.TrimRight(line, " \t") != line {
			issues = append(issues, Issue{Line: n, Message: IssueTrailingWhitespace})
		}
		if mask[i] {
			continue
		}
		if strings.Contains(line, "\t") {
			issues = append(issues, Issue{Line: n, Message: IssueTab})
		}
		if markdown.HeadingNeedsSpace(line) {
			issues = append(issues, Issue{Line: n, Message: IssueHeadingSpace})
		}
		if markdown.ListMarkerNeedsSpace(line) {
			issues = append(issues, Issue{Line: n, Message: IssueListMarkerSpace})
		}
	}
	return issues
}
