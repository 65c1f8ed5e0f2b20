// Package converter drives a full export-to-vault conversion: databases
// first, then the file mapping, then every document, then assets, and
// finally one linker pass over the finished vault.
package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/vaultport/internal/apperr"
	"github.com/starford/vaultport/internal/checksum"
	"github.com/starford/vaultport/internal/database"
	"github.com/starford/vaultport/internal/identity"
	"github.com/starford/vaultport/internal/index"
	"github.com/starford/vaultport/internal/linker"
	"github.com/starford/vaultport/internal/linter"
	"github.com/starford/vaultport/internal/metrics"
	"github.com/starford/vaultport/internal/storage"
	"github.com/starford/vaultport/internal/transform"
)

// DefaultAttachmentsDir is the flat folder assets are copied into.
const DefaultAttachmentsDir = "attachments"

// DefaultAssetExtensions lists the file types copied as assets.
var DefaultAssetExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".pdf",
	".mp4", ".webm", ".mp3", ".wav", ".csv",
}

// Event kinds passed to an EventFunc.
const (
	EventConverted = "document.converted"
	EventFailed    = "document.failed"
	EventRemoved   = "document.removed"
	EventLinked    = "vault.linked"
)

// EventFunc receives conversion events. path is source-relative for
// document events and empty for EventLinked.
type EventFunc func(kind, path string)

// Failure is one skipped source.
type Failure struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
	Err    error  `json:"-"`
}

// Result summarizes a run.
type Result struct {
	Documents int       `json:"documents"`
	Databases int       `json:"databases"`
	Assets    int       `json:"assets"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Linked    int       `json:"linked"`
	Failures  []Failure `json:"failures,omitempty"`
}

func (r *Result) fail(source, kind string, err error) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{Source: source, Kind: kind, Error: err.Error(), Err: err})
}

// Converter reads an export tree from src and writes a vault to dst.
type Converter struct {
	src storage.Provider
	dst storage.Provider

	logger         *slog.Logger
	passes         []transform.Pass
	chain          *transform.Chain
	linter         *linter.Linter
	catalog        index.Catalog
	metrics        *metrics.Metrics
	events         EventFunc
	attachmentsDir string
	assetExts      []string
	now            func() time.Time
	skipUnchanged  bool

	mu        sync.RWMutex
	mapping   *identity.Mapping
	processed map[string]struct{}

	// assets maps source to attachment path; assetOwners is the inverse.
	assets      map[string]string
	assetOwners map[string]string
}

// New creates a Converter from src to dst.
func New(src, dst storage.Provider, opts ...Option) *Converter {
	c := &Converter{
		src:            src,
		dst:            dst,
		attachmentsDir: DefaultAttachmentsDir,
		assetExts:      DefaultAssetExtensions,
		now:            time.Now,
		mapping:        identity.NewMapping(),
		processed:      make(map[string]struct{}),
		assets:         make(map[string]string),
		assetOwners:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.linter == nil {
		c.linter = linter.New(linter.DefaultConfig(), c.logger)
	}
	c.chain = transform.NewChain(c.logger, c.passes...)
	return c
}

// Mapping returns the current source-to-destination mapping.
func (c *Converter) Mapping() *identity.Mapping {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mapping
}

// Run converts the whole tree. Failures of single documents, databases or
// assets are logged and reported in the Result; a write failure or
// cancellation aborts the run and is returned.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	res := &Result{}
	c.processed = make(map[string]struct{})
	c.assets = make(map[string]string)
	c.assetOwners = make(map[string]string)

	if c.catalog != nil {
		if n, err := index.Prune(c.catalog, c.src, c.logger); err != nil {
			c.logger.Warn("converter: catalog prune failed", slog.String("error", err.Error()))
		} else if n > 0 {
			c.logger.Info("converter: pruned catalog", slog.Int("removed", n))
		}
	}

	if err := c.convertDatabases(ctx, res); err != nil {
		return res, err
	}

	if err := c.buildMapping(); err != nil {
		return res, err
	}

	assets, err := c.planAssets()
	if err != nil {
		return res, err
	}

	for _, rel := range c.mapping.Sources() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, done := c.processed[rel]; done {
			continue
		}
		c.processed[rel] = struct{}{}

		dest, _ := c.mapping.Lookup(rel)
		if owner, _ := c.mapping.Owner(dest); owner != rel {
			res.Skipped++
			continue
		}
		skipped, err := c.convertDocument(ctx, rel)
		switch {
		case errors.Is(err, apperr.ErrFilesystemWrite):
			return res, err
		case err != nil:
			res.fail(rel, index.KindDocument, err)
		case skipped:
			res.Skipped++
		default:
			res.Documents++
		}
	}

	if err := c.copyAssets(ctx, res, assets); err != nil {
		return res, err
	}

	linked, err := c.relink(ctx)
	if err != nil {
		return res, err
	}
	res.Linked = linked

	c.logger.Info("converter: run complete",
		slog.Int("documents", res.Documents),
		slog.Int("databases", res.Databases),
		slog.Int("assets", res.Assets),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
		slog.Int("linked", res.Linked),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}

// buildMapping records a destination for every document in the source
// tree. It completes before any document is converted so links between
// pages resolve regardless of traversal order.
func (c *Converter) buildMapping() error {
	docs, err := c.src.List("", transform.DocumentExt)
	if err != nil {
		return fmt.Errorf("converter: list documents: %w", err)
	}
	paths := make([]string, len(docs))
	for i, d := range docs {
		paths[i] = d.Path
	}
	c.mapping = identity.BuildMapping(paths)
	for _, col := range c.mapping.Collisions() {
		c.logger.Warn("converter: destination collision",
			slog.String("dest", col.Dest),
			slog.String("source", col.Winner),
			slog.String("replaces", col.Previous))
	}
	c.logger.Debug("converter: mapping built", slog.Int("documents", c.mapping.Len()))
	return nil
}

func (c *Converter) convertDatabases(ctx context.Context, res *Result) error {
	dbc := database.NewConverter(c.src, c.dst, c.logger)
	sources, err := dbc.Discover()
	if err != nil {
		return fmt.Errorf("converter: discover databases: %w", err)
	}
	for _, s := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.convertDatabase(ctx, dbc, s); err != nil {
			if errors.Is(err, apperr.ErrFilesystemWrite) || ctx.Err() != nil {
				return err
			}
			res.fail(s.Path, index.KindDatabase, err)
			continue
		}
		res.Databases++
	}
	c.metrics.AddDatabases(res.Databases)
	return nil
}

// ConvertDatabase re-projects the tabular source at rel.
func (c *Converter) ConvertDatabase(ctx context.Context, rel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.convertDatabase(ctx, database.NewConverter(c.src, c.dst, c.logger), database.SourceFor(rel))
	if err == nil {
		c.metrics.AddDatabases(1)
	}
	return err
}

func (c *Converter) convertDatabase(ctx context.Context, dbc *database.Converter, s database.Source) error {
	r, err := dbc.Convert(ctx, s.Path, s.OutDir, s.Name)
	if err != nil {
		c.logger.Warn("converter: database failed",
			slog.String("source", s.Path),
			slog.String("error", err.Error()))
		c.recordFailure(s.Path, index.KindDatabase, "", err)
		return err
	}
	if c.catalog != nil {
		sum := ""
		if data, err := c.src.Read(s.Path); err == nil {
			sum = checksum.Sum(data)
		}
		content, err := c.dst.Read(r.Index)
		if err == nil {
			err = index.Record(c.catalog, index.Entry{
				Source:    s.Path,
				Dest:      r.Index,
				Kind:      index.KindDatabase,
				Title:     s.Name,
				Checksum:  sum,
				UpdatedAt: c.now(),
			}, content)
		}
		if err != nil {
			c.logger.Warn("converter: catalog record failed", slog.String("source", s.Path), slog.String("error", err.Error()))
		}
	}
	return nil
}

func (c *Converter) recordFailure(source, kind, sum string, cause error) {
	if c.catalog == nil {
		return
	}
	if err := index.RecordFailure(c.catalog, source, kind, sum, cause); err != nil {
		c.logger.Warn("converter: catalog record failed", slog.String("source", source), slog.String("error", err.Error()))
	}
}

func (c *Converter) emit(kind, path string) {
	if c.events != nil {
		c.events(kind, path)
	}
}

// Relink runs the cross-document linker once over the destination vault.
func (c *Converter) Relink(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.relink(ctx)
}

func (c *Converter) relink(ctx context.Context) (int, error) {
	r, err := linker.New(c.dst, c.logger).Run(ctx)
	if err != nil {
		return r.Linked, err
	}
	c.metrics.AddLinked(r.Linked)
	c.emit(EventLinked, "")
	return r.Linked, nil
}

// Sources returns the mapped document sources in mapping order.
func (c *Converter) Sources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mapping.Sources()
}
