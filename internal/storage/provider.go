// Package storage defines the file-system abstraction used for both the
// export tree being read and the vault being written.
package storage

import (
	"io"

	"github.com/starford/vaultport/internal/models"
)

// Provider is the interface for tree file operations. All paths are
// slash-separated and relative to the provider root.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// List walks dir and returns metadata for every file whose extension
	// is in exts (all files when exts is empty), in lexical order.
	List(dir string, exts ...string) ([]models.DocumentMetadata, error)
	// Dirs returns the names of the immediate subdirectories of dir.
	Dirs(dir string) ([]string, error)
	// Stat returns metadata for one file without hashing it.
	Stat(path string) (models.DocumentMetadata, error)
	// Exists reports whether path exists.
	Exists(path string) bool
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Open returns a reader for the file at path.
	Open(path string) (io.ReadCloser, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// WriteFrom atomically streams r into path.
	WriteFrom(path string, r io.Reader) error
	// Delete removes the file at path.
	Delete(path string) error
}
