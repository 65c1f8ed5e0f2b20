package index

import (
	"log/slog"

	"github.com/starford/vaultport/internal/parser"
	"github.com/starford/vaultport/internal/storage"
)

// Record parses converted content and upserts it under e. Title and tags
// come from the note itself unless e already carries them.
func Record(c Catalog, e Entry, content []byte) error {
	res, err := parser.Parse(content)
	if err != nil {
		return err
	}
	if e.Title == "" {
		e.Title = res.Title
	}
	if len(e.Tags) == 0 {
		e.Tags = res.Tags
	}
	return c.Upsert(e, res.Body, res.Links)
}

// RecordFailure marks source as failed, keeping nothing of its content.
func RecordFailure(c Catalog, source, kind, checksum string, cause error) error {
	return c.Upsert(Entry{
		Source:   source,
		Kind:     kind,
		Checksum: checksum,
		Status:   StatusFailed,
		Error:    cause.Error(),
	}, "", nil)
}

// Prune removes entries whose source no longer exists in src and returns
// how many were dropped. A nil logger discards output.
func Prune(c Catalog, src storage.Provider, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	checksums, err := c.Checksums()
	if err != nil {
		return 0, err
	}

	removed := 0
	for source := range checksums {
		if src.Exists(source) {
			continue
		}
		if err := c.Delete(source); err != nil {
			logger.Warn("prune: delete failed", slog.String("source", source), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("prune: removed stale", slog.String("source", source))
		removed++
	}
	return removed, nil
}
