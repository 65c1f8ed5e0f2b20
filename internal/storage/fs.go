package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/vaultport/internal/apperr"
	"github.com/starford/vaultport/internal/checksum"
	"github.com/starford/vaultport/internal/models"
)

const tmpPrefix = ".vaultport-tmp-"

// FS implements Provider backed by the local file system.
type FS struct {
	root     string // absolute path to the tree root
	excludes []string
}

// FSOption configures an FS.
type FSOption func(*FS)

// WithExcludes skips files and directories matching any of the doublestar
// patterns, matched against root-relative slash paths.
func WithExcludes(patterns ...string) FSOption {
	return func(f *FS) {
		f.excludes = append(f.excludes, patterns...)
	}
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string, opts ...FSOption) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	f := &FS{root: abs}
	for _, opt := range opts {
		opt(f)
	}
	for _, p := range f.excludes {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("storage: invalid exclude pattern %q", p)
		}
	}
	return f, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string { return f.root }

// Rel converts an absolute path under the root to a slash-separated
// relative path.
func (f *FS) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: %w: %s is outside %s", apperr.ErrInvalidPath, abs, f.root)
	}
	return filepath.ToSlash(rel), nil
}

// Excluded reports whether rel matches an exclude pattern.
func (f *FS) Excluded(rel string) bool {
	for _, p := range f.excludes {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// safePath resolves a relative path against the root and rejects any
// result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" || rel == "." {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("storage: %w: absolute paths not allowed: %s", apperr.ErrInvalidPath, rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: %w: path escapes root: %s", apperr.ErrInvalidPath, rel)
	}
	return abs, nil
}

// List walks dir (relative to root) and returns metadata for every file
// with one of the given extensions.
func (f *FS) List(dir string, exts ...string) ([]models.DocumentMetadata, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []models.DocumentMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := f.Rel(p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != base && f.Excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), tmpPrefix) || f.Excluded(rel) || !hasExt(d.Name(), exts) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out = append(out, models.DocumentMetadata{
			Path:      rel,
			Checksum:  checksum.Sum(data),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func hasExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// Dirs returns the sorted names of the immediate subdirectories of dir.
func (f *FS) Dirs(dir string) ([]string, error) {
	abs, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Stat returns size and modification time of a file. Checksum is left
// empty.
func (f *FS) Stat(p string) (models.DocumentMetadata, error) {
	abs, err := f.safePath(p)
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.DocumentMetadata{}, notFound("stat", p, err)
	}
	return models.DocumentMetadata{
		Path:      filepath.ToSlash(filepath.Clean(filepath.FromSlash(p))),
		Size:      info.Size(),
		UpdatedAt: info.ModTime(),
	}, nil
}

// Exists reports whether path exists.
func (f *FS) Exists(p string) bool {
	abs, err := f.safePath(p)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// Read returns the raw bytes of a file.
func (f *FS) Read(p string) ([]byte, error) {
	abs, err := f.safePath(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, notFound("read", p, err)
	}
	return data, nil
}

// Open returns a reader for a file.
func (f *FS) Open(p string) (io.ReadCloser, error) {
	abs, err := f.safePath(p)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, notFound("open", p, err)
	}
	return file, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(p string, content []byte) error {
	return f.WriteFrom(p, bytes.NewReader(content))
}

// WriteFrom atomically streams r into p. Every failure wraps
// apperr.ErrFilesystemWrite.
func (f *FS) WriteFrom(p string, r io.Reader) error {
	abs, err := f.safePath(p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return writeErr("mkdir", p, err)
	}

	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return writeErr("create temp", p, err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return writeErr("write temp", p, err)
	}
	if err := tmp.Sync(); err != nil {
		return writeErr("fsync", p, err)
	}
	if err := tmp.Close(); err != nil {
		return writeErr("close temp", p, err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return writeErr("rename", p, err)
	}
	success = true
	return nil
}

// Delete removes a file and any directories left empty up to the root.
func (f *FS) Delete(p string) error {
	abs, err := f.safePath(p)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return notFound("delete", p, err)
	}
	for dir := filepath.Dir(abs); dir != f.root && strings.HasPrefix(dir, f.root); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

func writeErr(op, p string, err error) error {
	return fmt.Errorf("storage: %s %s: %w: %w", op, p, apperr.ErrFilesystemWrite, err)
}

func notFound(op, p string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: %s %s: %w", op, p, apperr.ErrNotFound)
	}
	return fmt.Errorf("storage: %s %s: %w", op, p, err)
}
