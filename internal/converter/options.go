package converter

import (
	"log/slog"
	"time"

	"github.com/starford/vaultport/internal/index"
	"github.com/starford/vaultport/internal/linter"
	"github.com/starford/vaultport/internal/metrics"
	"github.com/starford/vaultport/internal/transform"
)

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithPasses replaces the default transform passes with an ordered list.
func WithPasses(passes ...transform.Pass) Option {
	return func(c *Converter) { c.passes = passes }
}

// WithLinter sets the linter run over every converted document.
func WithLinter(l *linter.Linter) Option {
	return func(c *Converter) { c.linter = l }
}

// WithCatalog records every outcome in cat.
func WithCatalog(cat index.Catalog) Option {
	return func(c *Converter) { c.catalog = cat }
}

// WithMetrics counts outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Converter) { c.metrics = m }
}

// WithEvents registers a callback invoked after each converted, failed or
// removed document and after each linker pass.
func WithEvents(fn EventFunc) Option {
	return func(c *Converter) { c.events = fn }
}

// WithAttachmentsDir sets the flat destination folder for assets.
func WithAttachmentsDir(dir string) Option {
	return func(c *Converter) { c.attachmentsDir = dir }
}

// WithAssetExtensions sets which source files are copied as assets.
// Extensions include the leading dot. An empty list keeps the defaults.
func WithAssetExtensions(exts ...string) Option {
	return func(c *Converter) {
		if len(exts) > 0 {
			c.assetExts = exts
		}
	}
}

// WithClock sets the time source for catalog timestamps and for the
// created date of documents with no modification time.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithSkipUnchanged skips documents whose source checksum matches the
// catalog and whose destination still exists. Requires a catalog.
func WithSkipUnchanged(skip bool) Option {
	return func(c *Converter) { c.skipUnchanged = skip }
}
