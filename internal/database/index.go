package database

import (
	"fmt"
	"strings"
	"text/template"
)

const (
	// QueryLanguage tags generated query fences.
	QueryLanguage = "dataview"

	maxDisplayColumns = 5
	maxStatusViews    = 2
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"join":  strings.Join,
	"first": first,
	"table": tableClause,
}).Parse(`# {{.Name}} Database

*Converted from Notion database*

## All Items

` + "```{{.Lang}}" + `
{{table (join .Display ", ")}}
FROM "{{.Folder}}"
WHERE contains(tags, "{{.Tag}}")
SORT file.name ASC
` + "```" + `

## Quick Views

{{if .Status}}### By Status

{{range .Status}}**{{.Name}} = Yes:**
` + "```{{$.Lang}}" + `
{{table (join (first $.Display 3) ", ")}}
FROM "{{$.Folder}}"
WHERE {{.Key}} = true
` + "```" + `

{{end}}{{end}}{{with .Timeline}}### Timeline

**Sorted by {{.Name}}:**
` + "```{{$.Lang}}" + `
TABLE {{.Key}} as "Date"{{range first $.Display 2}}, {{.}}{{end}}
FROM "{{$.Folder}}"
WHERE {{.Key}}
SORT {{.Key}} DESC
` + "```" + `

{{end}}### List View

` + "```{{.Lang}}" + `
LIST
FROM "{{.Folder}}"
WHERE contains(tags, "{{.Tag}}")
SORT file.name ASC
` + "```" + `

## How to Use

1. Install the [Dataview plugin](https://github.com/blacksmithgu/obsidian-dataview) in Obsidian
2. Enable Dataview in Settings → Community Plugins
3. The tables above will automatically populate with your data
4. Click on any item to edit it
5. Modify frontmatter properties to update the database

## Available Properties

{{range .Headers}}- **{{.Name}}** (` + "`{{.Key}}`" + `) - {{.Type}}
{{end}}
## Custom Queries

You can create your own Dataview queries. Examples:

` + "```{{.Lang}}" + `
# Search for specific text
TABLE
FROM "{{.Folder}}"
WHERE contains(file.name, "search-term")
` + "```" + `

` + "```{{.Lang}}" + `
# Count items
TABLE length(rows) as "Count"
FROM "{{.Folder}}"
GROUP BY tags
` + "```" + `
`))

type indexData struct {
	Name     string
	Folder   string
	Lang     string
	Tag      string
	Display  []string
	Status   []Header
	Timeline *Header
	Headers  []Header
}

// BuildIndex renders the index note of a database stored in folder. The
// query text is produced by templating only.
func BuildIndex(name string, headers []Header, folder string) (string, error) {
	data := indexData{
		Name:    name,
		Folder:  folder,
		Lang:    QueryLanguage,
		Tag:     ItemTag,
		Headers: headers,
	}
	for _, h := range headers {
		if h.IsIdentity() || len(data.Display) == maxDisplayColumns {
			continue
		}
		data.Display = append(data.Display, h.Key+` as "`+h.Name+`"`)
	}
	for _, h := range headers {
		if h.Kind() == KindBoolean && len(data.Status) < maxStatusViews {
			data.Status = append(data.Status, h)
		}
		if data.Timeline == nil && (strings.Contains(h.Type, "date") || strings.Contains(h.Type, "time")) {
			data.Timeline = &h
		}
	}

	var b strings.Builder
	if err := indexTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("database: render index: %w", err)
	}
	return b.String(), nil
}

func first(items []string, n int) []string {
	if len(items) < n {
		return items
	}
	return items[:n]
}

func tableClause(cols string) string {
	if cols == "" {
		return "TABLE"
	}
	return "TABLE " + cols
}
