package vaultservice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/vaultport/internal/apperr"
	"github.com/starford/vaultport/internal/index"
	"github.com/starford/vaultport/internal/testutil"
)

const homeNote = "---\nsource: notion\ncreated: 2024-03-05\ntags: [project]\n---\n\n# Home\n\nSee [[Sub Page|the sub page]].\n\n![[diagram.png]]\n\n| A | B |\n| --- | --- |\n| 1 | 2 |\n"

const subNote = "---\nsource: notion\n---\n\n# Sub Page\n\nBack to [[Home]].\n"

func setup(t *testing.T) *Service {
	t.Helper()
	dir, vault := testutil.TestVault(t)
	cat := testutil.TestCatalog(t)
	testutil.WriteTree(t, dir, map[string]string{
		"Home.md":          homeNote,
		"Home/Sub Page.md": subNote,
	}, time.Time{})

	for src, dest := range map[string]string{"Home abc.md": "Home.md", "Home abc/Sub Page def.md": "Home/Sub Page.md"} {
		data, err := vault.Read(dest)
		if err != nil {
			t.Fatal(err)
		}
		if err := index.Record(cat, index.Entry{
			Source: src,
			Dest:   dest,
			Kind:   index.KindDocument,
		}, data); err != nil {
			t.Fatal(err)
		}
	}
	return NewService(vault, cat)
}

func TestGetDocument(t *testing.T) {
	svc := setup(t)

	doc, err := svc.GetDocument(context.Background(), "Home.md")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Home" {
		t.Errorf("title = %q, want Home", doc.Title)
	}
	if doc.Source != "Home abc.md" || doc.Kind != index.KindDocument || doc.Status != index.StatusConverted {
		t.Errorf("catalog fields = %q %q %q", doc.Source, doc.Kind, doc.Status)
	}
	if len(doc.Tags) != 1 || doc.Tags[0] != "project" {
		t.Errorf("tags = %v", doc.Tags)
	}
	if len(doc.Links) != 1 || doc.Links[0] != "Sub Page" {
		t.Errorf("links = %v", doc.Links)
	}
	if len(doc.Backlinks) != 1 || doc.Backlinks[0] != "Home/Sub Page.md" {
		t.Errorf("backlinks = %v", doc.Backlinks)
	}
	if doc.Frontmatter["source"] != "notion" {
		t.Errorf("frontmatter = %v", doc.Frontmatter)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	svc := setup(t)
	_, err := svc.GetDocument(context.Background(), "missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListDocuments(t *testing.T) {
	svc := setup(t)
	items, total, err := svc.ListDocuments(context.Background(), index.ListFilter{Kind: index.KindDocument, Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 1 {
		t.Fatalf("total=%d len=%d, want 2 and 1", total, len(items))
	}
	if items[0].Path != "Home.md" {
		t.Errorf("first item = %q, want Home.md", items[0].Path)
	}
}

func TestBacklinks(t *testing.T) {
	svc := setup(t)
	bl, err := svc.Backlinks(context.Background(), "Home/Sub Page.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(bl) != 1 || bl[0] != "Home.md" {
		t.Errorf("backlinks = %v", bl)
	}
}

func TestPreview(t *testing.T) {
	svc := setup(t)
	out, err := svc.Preview(context.Background(), "Home.md")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"<h1>Home</h1>",
		`<a href="Sub%20Page.md">the sub page</a>`,
		`<img src="diagram.png" alt="diagram.png" />`,
		"<table>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("preview missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "source: notion") {
		t.Error("frontmatter leaked into preview")
	}
}
