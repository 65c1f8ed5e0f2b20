//go:build sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents_fts`).Scan(&count); err != nil {
		t.Fatalf("documents_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	e := Entry{
		Source:    "fts.md",
		Dest:      "fts.md",
		Title:     "FTS Note",
		Checksum:  "f1",
		Tags:      []string{"search"},
		UpdatedAt: time.Now(),
	}
	if err := db.Upsert(e, "The converted vault supports powerful full-text search.", nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Source != "fts.md" || results[0].Dest != "fts.md" {
		t.Errorf("result = %+v", results[0])
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(Entry{Source: "gone.md", Dest: "gone.md", Checksum: "g"}, "vanishing content", nil)
	_ = db.Delete("gone.md")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.Source == "gone.md" {
			t.Error("deleted entry still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.Upsert(Entry{Source: "evo.md", Dest: "evo.md", Title: "Old", Checksum: "1", UpdatedAt: now}, "original text", nil)
	_ = db.Upsert(Entry{Source: "evo.md", Dest: "evo.md", Title: "New", Checksum: "2", UpdatedAt: now}, "replacement text", nil)

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
