// Package testutil provides shared test helpers for export trees, vaults
// and catalogs.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/vaultport/internal/index"
	"github.com/starford/vaultport/internal/storage"
)

// TestCatalog creates a temporary SQLite catalog that is automatically cleaned up.
func TestCatalog(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary directory with a storage.Provider over it.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteTree writes files (slash paths relative to root) and stamps each
// with modTime when it is non-zero.
func WriteTree(t *testing.T, root string, files map[string]string, modTime time.Time) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if !modTime.IsZero() {
			if err := os.Chtimes(p, modTime, modTime); err != nil {
				t.Fatal(err)
			}
		}
	}
}

// ReadFile returns the content of rel under root, failing the test when
// it cannot be read.
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}
