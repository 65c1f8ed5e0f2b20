package database

import (
	"fmt"
	"strings"

	"github.com/starford/vaultport/internal/frontmatter"
	"github.com/starford/vaultport/internal/identity"
	"github.com/starford/vaultport/internal/models"
)

const (
	// ItemTag marks every generated row note.
	ItemTag = "database-item"
	// FolderSuffix names the output folder of a database.
	FolderSuffix = "_Database"
	// IndexSuffix names the index note of a database.
	IndexSuffix = "_Index"
	// MaxFileNameLength bounds row note file names.
	MaxFileNameLength = 100

	checkMark = "✓"
	crossMark = "✗"
	untitled  = "Untitled"
)

var titleKeys = []string{"name", "title", "page", "item"}

// FolderName returns the output folder name for a database.
func FolderName(name string) string { return name + FolderSuffix }

// IndexName returns the index note file name for a database.
func IndexName(name string) string { return name + IndexSuffix + ".md" }

// Projection is the generated output of one table. Document Dest paths are
// relative to the database folder.
type Projection struct {
	Name   string
	Folder string
	Rows   []models.Document
	Index  models.Document
}

// Project renders every row plus the index note. exists reports whether a
// file name is already taken in the output folder; it may be nil.
// Collisions get _1, _2, ... suffixes in row order.
func Project(t *Table, name string, exists func(file string) bool) (*Projection, error) {
	p := &Projection{Name: name, Folder: FolderName(name)}
	taken := make(map[string]bool)
	isTaken := func(file string) bool {
		return taken[file] || (exists != nil && exists(file))
	}
	for i, row := range t.Rows {
		doc := ProjectRow(row, t.Headers, i, isTaken)
		taken[doc.Dest] = true
		p.Rows = append(p.Rows, doc)
	}
	index, err := BuildIndex(name, t.Headers, p.Folder)
	if err != nil {
		return nil, err
	}
	p.Index = models.Document{
		Name: name + IndexSuffix,
		Dest: IndexName(name),
		Body: index,
	}
	return p, nil
}

// ProjectRow renders one row as a note. The returned Dest is a file name
// not reported by taken.
func ProjectRow(row Row, headers []Header, index int, taken func(file string) bool) models.Document {
	title, ok := rowTitle(row, headers)
	base := fmt.Sprintf("item_%d", index+1)
	if ok {
		base = identity.SanitizeN(title, MaxFileNameLength)
	} else {
		title = untitled
	}

	file := base + ".md"
	for n := 1; taken != nil && taken(file); n++ {
		file = fmt.Sprintf("%s_%d.md", base, n)
	}

	return models.Document{
		Name: strings.TrimSuffix(file, ".md"),
		Dest: file,
		Body: frontmatter.Compose(rowFrontmatter(row, headers), rowBody(title, row, headers)),
	}
}

// rowTitle looks up the preferred title keys, then the first non-empty
// value in header order.
func rowTitle(row Row, headers []Header) (string, bool) {
	for _, k := range titleKeys {
		if v, ok := row[k]; ok && nonEmpty(v) {
			return v.String(), true
		}
	}
	for _, h := range headers {
		if v := row[h.Key]; nonEmpty(v) {
			return v.String(), true
		}
	}
	return "", false
}

func nonEmpty(v models.Value) bool {
	switch v.Kind {
	case models.KindText:
		return v.Text != ""
	case models.KindNumber:
		return v.Number != 0
	case models.KindBoolean:
		return v.Bool
	case models.KindList:
		return len(v.List) > 0
	default:
		return false
	}
}

// rowFrontmatter holds every present value plus the item tag. An existing
// tags column is merged with the tag rather than duplicated.
func rowFrontmatter(row Row, headers []Header) *frontmatter.Frontmatter {
	fm := frontmatter.New()
	for _, h := range headers {
		if v := row[h.Key]; !v.IsAbsent() {
			fm.Set(h.Key, v)
		}
	}

	tags := []string{}
	if v, ok := fm.Get("tags"); ok {
		switch v.Kind {
		case models.KindList:
			tags = append(tags, v.List...)
		default:
			tags = append(tags, v.String())
		}
	}
	for _, t := range tags {
		if t == ItemTag {
			fm.Set("tags", models.List(tags))
			return fm
		}
	}
	fm.Set("tags", models.List(append(tags, ItemTag)))
	return fm
}

func rowBody(title string, row Row, headers []Header) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	b.WriteString("## Properties\n\n")
	b.WriteString("| Property | Value |\n")
	b.WriteString("|----------|-------|\n")
	for _, h := range headers {
		v := row[h.Key]
		if v.IsAbsent() {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s |\n", h.Name, cellText(v))
	}
	b.WriteString("\n## Notes\n\n")
	b.WriteString("*Add your notes here...*\n")
	return b.String()
}

// cellText renders a value for a Markdown table cell.
func cellText(v models.Value) string {
	switch v.Kind {
	case models.KindBoolean:
		if v.Bool {
			return checkMark
		}
		return crossMark
	case models.KindAbsent:
		return ""
	default:
		return v.String()
	}
}

// InlineTable renders all rows as a single Markdown table. It returns the
// empty string for a table without headers or rows.
func InlineTable(t *Table) string {
	if len(t.Rows) == 0 || len(t.Headers) == 0 {
		return ""
	}
	names := make([]string, len(t.Headers))
	seps := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		names[i] = h.Name
		seps[i] = "---"
	}
	var b strings.Builder
	b.WriteString("| " + strings.Join(names, " | ") + " |\n")
	b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
	for _, row := range t.Rows {
		cells := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			cells[i] = cellText(row[h.Key])
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}
