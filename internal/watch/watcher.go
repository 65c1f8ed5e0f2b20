// Package watch keeps a converted vault in step with its export tree: an
// fsnotify watcher re-converts changed documents, re-projects changed
// databases, copies changed assets, and runs the linker once a burst of
// changes settles.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/vaultport/internal/database"
	"github.com/starford/vaultport/internal/transform"
)

// DefaultDebounce is how long the tree must stay quiet before the linker
// runs.
const DefaultDebounce = 200 * time.Millisecond

// Target is the conversion side the watcher drives.
type Target interface {
	ConvertDocument(ctx context.Context, rel string) error
	RemoveDocument(ctx context.Context, rel string) error
	ConvertDatabase(ctx context.Context, rel string) error
	CopyAsset(ctx context.Context, rel string) (string, error)
	IsAsset(rel string) bool
	Relink(ctx context.Context) (int, error)
	Sources() []string
}

// Tree is the watched source tree.
type Tree interface {
	Root() string
	Rel(abs string) (string, error)
	Excluded(rel string) bool
	Exists(rel string) bool
}

// Watcher maps file events on a Tree to Target operations.
type Watcher struct {
	target   Target
	tree     Tree
	logger   *slog.Logger
	debounce time.Duration
}

// New creates a Watcher. A nil logger discards output.
func New(target Target, tree Tree, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{target: target, tree: tree, logger: logger, debounce: DefaultDebounce}
}

// WithDebounce overrides the settle delay.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Run watches until ctx is cancelled. New directories are added to the
// watch list as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.tree.Root()); err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.String("root", w.tree.Root()))

	// settleTimer debounces the linker pass and rename reconciliation.
	var settleTimer *time.Timer
	var settleCh <-chan time.Time
	reconcile := false

	scheduleSettle := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(w.debounce)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			if reconcile {
				w.reconcile(ctx)
				reconcile = false
			}
			if _, err := w.target.Relink(ctx); err != nil && ctx.Err() == nil {
				w.logger.Warn("watcher: relink failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			changed := w.handle(ctx, fw, ev)
			if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				reconcile = true
				changed = true
			}
			if changed {
				scheduleSettle()
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// handle applies one event and reports whether the vault changed.
func (w *Watcher) handle(ctx context.Context, fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	rel, err := w.tree.Rel(ev.Name)
	if err != nil || rel == "." || w.tree.Excluded(rel) {
		return false
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
				w.logger.Warn("watcher: add new dir failed",
					slog.String("path", rel),
					slog.String("error", addErr.Error()))
			} else {
				w.logger.Debug("watcher: watching new dir", slog.String("path", rel))
			}
			return w.convertDir(ctx, ev.Name)
		}
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		return w.convert(ctx, rel)
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if !isDocument(rel) {
			return false
		}
		if err := w.target.RemoveDocument(ctx, rel); err != nil {
			w.logger.Warn("watcher: remove failed", slog.String("path", rel), slog.String("error", err.Error()))
			return false
		}
		return true
	}
	return false
}

// convert routes one changed file by kind.
func (w *Watcher) convert(ctx context.Context, rel string) bool {
	changed := false
	switch {
	case isDocument(rel):
		if err := w.target.ConvertDocument(ctx, rel); err != nil {
			w.logger.Warn("watcher: convert failed", slog.String("path", rel), slog.String("error", err.Error()))
			return false
		}
		return true
	case strings.EqualFold(path.Ext(rel), database.Ext):
		if err := w.target.ConvertDatabase(ctx, rel); err != nil {
			w.logger.Warn("watcher: database failed", slog.String("path", rel), slog.String("error", err.Error()))
		} else {
			changed = true
		}
	}
	if w.target.IsAsset(rel) {
		if _, err := w.target.CopyAsset(ctx, rel); err != nil {
			w.logger.Warn("watcher: asset failed", slog.String("path", rel), slog.String("error", err.Error()))
		} else {
			changed = true
		}
	}
	return changed
}

// convertDir handles every file already present in a newly created
// directory.
func (w *Watcher) convertDir(ctx context.Context, dir string) bool {
	changed := false
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := w.tree.Rel(p)
		if relErr != nil || w.tree.Excluded(rel) {
			return nil
		}
		if w.convert(ctx, rel) {
			changed = true
		}
		return nil
	})
	return changed
}

// reconcile removes mapped documents whose source vanished without a
// Remove event reaching the watcher.
func (w *Watcher) reconcile(ctx context.Context) {
	for _, rel := range w.target.Sources() {
		if w.tree.Exists(rel) {
			continue
		}
		if err := w.target.RemoveDocument(ctx, rel); err == nil {
			w.logger.Debug("reconcile: removed stale", slog.String("path", rel))
		}
	}
}

func isDocument(rel string) bool {
	return strings.EqualFold(path.Ext(rel), transform.DocumentExt)
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
