package database

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/starford/vaultport/internal/apperr"
	"github.com/starford/vaultport/internal/frontmatter"
	"github.com/starford/vaultport/internal/identity"
	"github.com/starford/vaultport/internal/models"
	"github.com/starford/vaultport/internal/storage"
)

// Ext is the tabular source extension.
const Ext = ".csv"

// Source is a discovered tabular source and where its projection goes.
type Source struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	OutDir string `json:"out_dir"`
}

// Result summarizes one converted database.
type Result struct {
	Source string   `json:"source"`
	Name   string   `json:"name"`
	Folder string   `json:"folder"`
	Index  string   `json:"index"`
	Rows   int      `json:"rows"`
	Files  []string `json:"files"`
}

// Converter reads tabular sources from src and writes projections to dst.
type Converter struct {
	src    storage.Provider
	dst    storage.Provider
	logger *slog.Logger
}

// NewConverter creates a Converter. A nil logger discards output.
func NewConverter(src, dst storage.Provider, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Converter{src: src, dst: dst, logger: logger}
}

// Discover lists every CSV under the source root. A root-level CSV is
// named after its own stem; a nested one after its parent directory, with
// output placed next to that directory's converted counterpart.
func (c *Converter) Discover() ([]Source, error) {
	files, err := c.src.List("", Ext)
	if err != nil {
		return nil, err
	}
	out := make([]Source, 0, len(files))
	for _, f := range files {
		out = append(out, SourceFor(f.Path))
	}
	return out, nil
}

// SourceFor derives the database name and output folder of a CSV path.
func SourceFor(rel string) Source {
	dir := path.Dir(rel)
	if dir == "." {
		name := identity.Stem(rel)
		return Source{Path: rel, Name: name, OutDir: FolderName(name)}
	}
	name := identity.ResolveName(path.Base(dir))
	return Source{Path: rel, Name: name, OutDir: path.Join(identity.DestDir(dir), FolderName(name))}
}

// FindTabularSource accepts a CSV file or a directory and returns the CSV
// to read: the file itself, or the first CSV directly inside the
// directory in lexical order.
func (c *Converter) FindTabularSource(rel string) (string, error) {
	if strings.EqualFold(path.Ext(rel), Ext) && c.src.Exists(rel) {
		return rel, nil
	}
	files, err := c.src.List(rel, Ext)
	if err == nil {
		dir := path.Clean(rel)
		for _, f := range files {
			if path.Dir(f.Path) == dir {
				return f.Path, nil
			}
		}
	}
	return "", fmt.Errorf("database: %w: %s", apperr.ErrNoTabularSource, rel)
}

// Load parses the tabular source found at rel.
func (c *Converter) Load(rel string) (*Table, error) {
	csvPath, err := c.FindTabularSource(rel)
	if err != nil {
		return nil, err
	}
	rc, err := c.src.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadCSV(rc)
}

// Convert projects the source at rel into outDir under the destination
// root, naming the database name.
func (c *Converter) Convert(ctx context.Context, rel, outDir, name string) (*Result, error) {
	t, err := c.Load(rel)
	if err != nil {
		return nil, err
	}
	// Notes generated by an earlier projection are rewritten in place;
	// anything else in the folder keeps its name.
	exists := func(file string) bool {
		p := path.Join(outDir, file)
		return c.dst.Exists(p) && !c.generated(p)
	}
	p, err := Project(t, name, exists)
	if err != nil {
		return nil, err
	}

	res := &Result{Source: rel, Name: name, Folder: outDir, Rows: len(p.Rows)}
	for _, doc := range p.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dest := path.Join(outDir, doc.Dest)
		if err := c.dst.Write(dest, []byte(doc.Body)); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, dest)
	}
	res.Index = path.Join(outDir, p.Index.Dest)
	if err := c.dst.Write(res.Index, []byte(p.Index.Body)); err != nil {
		return nil, err
	}
	c.pruneStale(outDir, res.Files)
	c.logger.Info("database: converted",
		slog.String("source", rel),
		slog.String("name", name),
		slog.Int("rows", res.Rows))
	return res, nil
}

// generated reports whether the note at p carries the row tag.
func (c *Converter) generated(p string) bool {
	data, err := c.dst.Read(p)
	if err != nil {
		return false
	}
	fm, _ := frontmatter.Extract(string(data))
	if fm == nil {
		return false
	}
	v, ok := fm.Get("tags")
	if !ok {
		return false
	}
	if v.Kind == models.KindList {
		return slices.Contains(v.List, ItemTag)
	}
	return v.String() == ItemTag
}

// pruneStale deletes generated row notes directly in outDir that the
// latest projection no longer produced.
func (c *Converter) pruneStale(outDir string, keep []string) {
	files, err := c.dst.List(outDir, ".md")
	if err != nil {
		return
	}
	for _, f := range files {
		if path.Dir(f.Path) != outDir || slices.Contains(keep, f.Path) || !c.generated(f.Path) {
			continue
		}
		if err := c.dst.Delete(f.Path); err != nil {
			c.logger.Warn("database: prune failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		c.logger.Debug("database: pruned stale row", slog.String("path", f.Path))
	}
}
