// Package linker appends database sections to pages that own embedded
// databases. It runs once over the finished output tree.
package linker

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/vaultport/internal/database"
	"github.com/starford/vaultport/internal/storage"
)

// SectionHeading marks a page that already lists its databases.
const SectionHeading = "## Databases"

// Result counts what a run did.
type Result struct {
	Linked  int `json:"linked"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Linker scans a converted vault.
type Linker struct {
	vault  storage.Provider
	logger *slog.Logger
}

// New creates a Linker over vault. A nil logger discards output.
func New(vault storage.Provider, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Linker{vault: vault, logger: logger}
}

// Run visits every page once. A page that cannot be read or written is
// logged and counted; the run continues. Only cancellation stops it.
func (l *Linker) Run(ctx context.Context) (Result, error) {
	var res Result
	docs, err := l.vault.List("", ".md")
	if err != nil {
		return res, fmt.Errorf("linker: list: %w", err)
	}
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		linked, err := l.LinkPage(d.Path)
		switch {
		case err != nil:
			res.Failed++
			l.logger.Warn("linker: page failed",
				slog.String("path", d.Path),
				slog.String("error", err.Error()))
		case linked:
			res.Linked++
		default:
			res.Skipped++
		}
	}
	return res, nil
}

// LinkPage appends the database section to the page at rel when a sibling
// folder named after the page holds database folders and the page has no
// section yet. It reports whether the page was rewritten.
func (l *Linker) LinkPage(rel string) (bool, error) {
	if !Eligible(rel) {
		return false, nil
	}
	stem := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	folder := path.Join(path.Dir(rel), stem)
	if !l.vault.Exists(folder) {
		return false, nil
	}
	dirs, err := l.vault.Dirs(folder)
	if err != nil {
		return false, err
	}
	var dbs []string
	for _, d := range dirs {
		if strings.HasSuffix(d, database.FolderSuffix) {
			dbs = append(dbs, d)
		}
	}
	if len(dbs) == 0 {
		return false, nil
	}

	data, err := l.vault.Read(rel)
	if err != nil {
		return false, err
	}
	content := string(data)
	if HasSection(content) {
		l.logger.Debug("linker: section present", slog.String("path", rel))
		return false, nil
	}

	updated := strings.TrimRight(content, " \t\n") + Section(rel, dbs)
	if err := l.vault.Write(rel, []byte(updated)); err != nil {
		return false, err
	}
	l.logger.Info("linker: embedded databases",
		slog.String("path", rel),
		slog.Int("databases", len(dbs)))
	return true, nil
}

// Eligible reports whether rel may receive a section: index notes and
// notes inside database folders never do.
func Eligible(rel string) bool {
	stem := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	if strings.HasSuffix(stem, database.IndexSuffix) {
		return false
	}
	for _, seg := range strings.Split(path.Dir(rel), "/") {
		if strings.Contains(seg, database.FolderSuffix) {
			return false
		}
	}
	return true
}

// HasSection reports whether content already carries the section heading,
// in any letter case.
func HasSection(content string) bool {
	return strings.Contains(strings.ToLower(content), strings.ToLower(SectionHeading))
}

// Section renders the appended block for the page at rel and its database
// folder names. Query scopes are vault-relative; index links are relative
// to the page.
func Section(rel string, folders []string) string {
	stem := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	var b strings.Builder
	b.WriteString("\n\n---\n\n" + SectionHeading + "\n\n")
	b.WriteString("*This page contains the following databases:*\n\n")
	for _, folder := range folders {
		name := strings.TrimSuffix(folder, database.FolderSuffix)
		scope := path.Join(path.Dir(rel), stem, folder)
		link := path.Join(stem, folder, database.IndexName(name))

		fmt.Fprintf(&b, "### %s\n\n", name)
		fmt.Fprintf(&b, "```%s\n", database.QueryLanguage)
		b.WriteString("LIST\n")
		fmt.Fprintf(&b, "FROM \"%s\"\n", scope)
		fmt.Fprintf(&b, "WHERE contains(tags, \"%s\")\n", database.ItemTag)
		b.WriteString("SORT file.name ASC\n")
		b.WriteString("```\n\n")
		fmt.Fprintf(&b, "*[View full database](%s)*\n", strings.ReplaceAll(link, " ", "%20"))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
