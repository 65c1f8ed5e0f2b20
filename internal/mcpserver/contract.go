package mcpserver

// HouseStyleURI addresses the house style resource.
const HouseStyleURI = "vaultport://house-style"

// HouseStyle describes the conventions every converted note follows, so
// LLM consumers can read and extend a vaultport vault consistently.
const HouseStyle = `# vaultport House Style

Every note in a converted vault follows this structure.

## Structure

` + "```" + `markdown
---
source: notion
created: 2024-03-05
---

# Page Title

Body text in normalized Markdown. Links to other pages are [[wikilinks]],
images and files are ![[embeds]] of names in the attachments folder.
` + "```" + `

## Rules

1. **Frontmatter** comes first. ` + "`" + `source: notion` + "`" + ` is always present;
   ` + "`" + `created` + "`" + ` is the export file date as YYYY-MM-DD. Existing keys keep their
   position. Exactly one blank line follows the closing marker.
2. **File names** are the page titles with the export identifier removed.
   Characters ` + "`" + `<>:"/\|?*` + "`" + ` become ` + "`" + `-` + "`" + `; names are at most 200 characters.
3. **Headings** have one space after the hashes.
4. **Lists** use ` + "`" + `-` + "`" + ` bullets with one space after the marker, and are
   separated from surrounding text by a blank line.
5. **Tables** have trimmed cells, separator cells of at least three dashes and a
   blank line after the last row.
6. **Blank lines** are capped at two in a row; files end with one newline.
7. **Callouts** use ` + "`" + `> [!note]` + "`" + ` blocks; toggles become ` + "`" + `> [!note]-` + "`" + ` folded callouts.

## Databases

- Each CSV database becomes a folder ` + "`" + `{Name}_Database` + "`" + ` holding one note per row
  and an index note ` + "`" + `{Name}_Index.md` + "`" + `.
- Row notes carry every property as frontmatter plus ` + "`" + `tags: [database-item]` + "`" + `.
  Checkboxes are booleans, multi-selects are lists, dates are YYYY-MM-DD.
- Index notes hold ` + "`" + `dataview` + "`" + ` queries over the row folder.
- A page with databases below it ends with a ` + "`" + `## Databases` + "`" + ` section embedding
  each database table.

## Attachments

- Images and files are copied flat into ` + "`" + `attachments/` + "`" + `.
- Name clashes get ` + "`" + `_1` + "`" + `, ` + "`" + `_2` + "`" + ` suffixes before the extension.
- Reference them by name: ` + "`" + `![[diagram.png]]` + "`" + `.
`
