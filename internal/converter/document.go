package converter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/vaultport/internal/apperr"
	"github.com/starford/vaultport/internal/checksum"
	"github.com/starford/vaultport/internal/frontmatter"
	"github.com/starford/vaultport/internal/identity"
	"github.com/starford/vaultport/internal/index"
	"github.com/starford/vaultport/internal/models"
	"github.com/starford/vaultport/internal/transform"
)

// SourceTag is the value of the "source" key stamped on every document.
const SourceTag = "notion"

// DateLayout formats the injected created date.
const DateLayout = "2006-01-02"

// ConvertContent converts one page body without touching the file
// system. sourceRel only steers link resolution. No created date is
// injected.
func (c *Converter) ConvertContent(text, sourceRel string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.render(text, sourceRel, "")
}

// ConvertDocument converts the single document at rel, adding it to the
// mapping when it is new. Used for incremental updates.
func (c *Converter) ConvertDocument(ctx context.Context, rel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.mapping.Lookup(rel); !ok {
		c.mapping.Set(rel, identity.DestPath(rel))
	}
	_, err := c.convertDocument(ctx, rel)
	return err
}

// RemoveDocument deletes the destination of rel (unless another source
// now owns it) and forgets rel in the mapping and catalog.
func (c *Converter) RemoveDocument(ctx context.Context, rel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	dest, ok := c.mapping.Lookup(rel)
	if !ok {
		dest = identity.DestPath(rel)
	}
	owner, owned := c.mapping.Owner(dest)
	if !owned || owner == rel {
		if err := c.dst.Delete(dest); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
	}
	c.mapping.Delete(rel)
	if c.catalog != nil {
		if err := c.catalog.Delete(rel); err != nil {
			c.logger.Warn("converter: catalog delete failed", slog.String("source", rel), slog.String("error", err.Error()))
		}
	}
	c.logger.Info("converter: removed", slog.String("source", rel), slog.String("dest", dest))
	c.emit(EventRemoved, rel)
	return nil
}

// convertDocument reads, converts, lints and writes one document. It
// reports skipped when the catalog shows the source unchanged.
func (c *Converter) convertDocument(ctx context.Context, rel string) (skipped bool, err error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	dest, _ := c.mapping.Lookup(rel)
	var sum string

	defer func() {
		if skipped {
			return
		}
		c.metrics.ObserveDocument(start, err)
		if err != nil {
			c.recordFailure(rel, index.KindDocument, sum, err)
			c.logger.Warn("converter: document failed",
				slog.String("source", rel),
				slog.String("error", err.Error()))
			c.emit(EventFailed, rel)
			return
		}
		c.emit(EventConverted, rel)
	}()

	data, err := c.src.Read(rel)
	if err != nil {
		return false, err
	}
	sum = checksum.Sum(data)

	if c.skipUnchanged && c.catalog != nil && c.dst.Exists(dest) {
		if prev, _ := c.catalog.Checksum(rel); prev == sum {
			c.logger.Debug("converter: unchanged", slog.String("source", rel))
			return true, nil
		}
	}

	meta, err := c.src.Stat(rel)
	if err != nil {
		return false, err
	}
	created := meta.UpdatedAt
	if created.IsZero() {
		created = c.now()
	}

	out := c.render(string(data), rel, created.Format(DateLayout))
	if err := c.dst.Write(dest, []byte(out)); err != nil {
		return false, err
	}
	c.logger.Debug("converter: saved", slog.String("source", rel), slog.String("dest", dest))

	if c.catalog != nil {
		err := index.Record(c.catalog, index.Entry{
			Source:    rel,
			Dest:      dest,
			Kind:      index.KindDocument,
			Title:     identity.Stem(dest),
			Checksum:  sum,
			UpdatedAt: c.now(),
		}, []byte(out))
		if err != nil {
			c.logger.Warn("converter: catalog record failed", slog.String("source", rel), slog.String("error", err.Error()))
		}
	}
	return false, nil
}

// render is the pure conversion: frontmatter stamping, the transform
// chain, then the linter.
func (c *Converter) render(text, rel, created string) string {
	fm, body := frontmatter.Extract(text)
	if fm == nil {
		fm = frontmatter.New()
	}
	fm.Set("source", models.Text(SourceTag))
	if created != "" {
		fm.Set("created", models.Text(created))
	}
	body = c.chain.Apply(body, transform.Doc{Path: rel, Mapping: c.mapping, Assets: c.assetDest})
	return c.linter.Lint(frontmatter.Compose(fm, body))
}
