package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/vaultport/internal/apperr"
	"github.com/starford/vaultport/internal/index"
	"github.com/starford/vaultport/internal/testutil"
)

func testConfig(t *testing.T) (*Config, string, string) {
	t.Helper()
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "vault")
	cfg := NewDefaultConfig()
	cfg.Convert.Source = src
	cfg.Convert.Dest = dst
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "catalog.db")
	return cfg, src, dst
}

func TestRun_MissingInput(t *testing.T) {
	cfg, _, dst := testConfig(t)
	cfg.Convert.Source = filepath.Join(t.TempDir(), "absent")

	_, err := Run(context.Background(), WithConfig(cfg))
	if !errors.Is(err, apperr.ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Error("destination must not be created when the source is missing")
	}
}

func TestRun_ConfigRequired(t *testing.T) {
	if _, err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRun_ConvertsTree(t *testing.T) {
	cfg, src, dst := testConfig(t)
	cfg.Convert.Catalog = true
	cfg.Convert.Exclude = append(cfg.Convert.Exclude, "drafts/**")
	testutil.WriteTree(t, src, map[string]string{
		"Page 0123456789abcdef0123456789abcdef.md": "#Page\n",
		"drafts/Draft.md":                          "# Draft\n",
	}, time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local))

	res, err := Run(context.Background(), WithConfig(cfg), WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.Documents != 1 {
		t.Errorf("documents = %d, want 1", res.Documents)
	}
	got := testutil.ReadFile(t, dst, "Page.md")
	if !strings.HasPrefix(got, "---\nsource: notion\ncreated: 2024-01-02\n---\n\n# Page\n") {
		t.Errorf("Page.md = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dst, "Draft.md")); !os.IsNotExist(err) {
		t.Error("excluded file was converted")
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	entry, err := db.Get("Page 0123456789abcdef0123456789abcdef.md")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Dest != "Page.md" {
		t.Errorf("catalog dest = %q", entry.Dest)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLintFile_Modes(t *testing.T) {
	cfg := NewDefaultConfig()
	dir := t.TempDir()
	file := writeFile(t, dir, "note.md", "#Title\n*  item\n")
	var out bytes.Buffer
	opts := []Option{WithConfig(cfg), WithStdout(&out)}

	err := LintFile(context.Background(), file, LintValidate, opts...)
	if !errors.Is(err, ErrLintFailed) {
		t.Fatalf("validate err = %v, want ErrLintFailed", err)
	}
	if !strings.Contains(out.String(), "note.md:line 1:") {
		t.Errorf("validate output = %q", out.String())
	}

	out.Reset()
	if err := LintFile(context.Background(), file, LintCheck, opts...); !errors.Is(err, ErrLintFailed) {
		t.Fatalf("check err = %v, want ErrLintFailed", err)
	}
	if !strings.Contains(out.String(), "would reformat") {
		t.Errorf("check output = %q", out.String())
	}

	if err := LintFile(context.Background(), file, LintFix, opts...); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(file)
	if string(data) != "# Title\n\n- item\n" {
		t.Errorf("fixed = %q", data)
	}
	if err := LintFile(context.Background(), file, LintCheck, opts...); err != nil {
		t.Errorf("check after fix = %v", err)
	}
}

func TestConvertTable(t *testing.T) {
	cfg := NewDefaultConfig()
	dir := t.TempDir()
	csv := writeFile(t, dir, "Tasks 0123456789abcdef0123456789abcdef.csv", "Name,Done (checkbox)\nShip,Yes\nTest,No\n")
	outDir := filepath.Join(t.TempDir(), "out")
	var out bytes.Buffer

	if err := ConvertTable(context.Background(), csv, outDir, false, WithConfig(cfg), WithStdout(&out)); err != nil {
		t.Fatal(err)
	}
	for _, rel := range []string{"Tasks_Database/Ship.md", "Tasks_Database/Test.md", "Tasks_Database/Tasks_Index.md"} {
		if _, err := os.Stat(filepath.Join(outDir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing %s", rel)
		}
	}
	if !strings.Contains(out.String(), "converted 2 rows") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := ConvertTable(context.Background(), dir, "", true, WithConfig(cfg), WithStdout(&out)); err != nil {
		t.Fatal(err)
	}
	want := "| Name | Done |\n| --- | --- |\n| Ship | ✓ |\n| Test | ✗ |\n"
	if out.String() != want {
		t.Errorf("inline = %q, want %q", out.String(), want)
	}
}

func TestConvertTable_NoTabularSource(t *testing.T) {
	cfg := NewDefaultConfig()
	err := ConvertTable(context.Background(), t.TempDir(), "", true, WithConfig(cfg), WithStdout(&bytes.Buffer{}))
	if !errors.Is(err, apperr.ErrNoTabularSource) {
		t.Fatalf("err = %v, want ErrNoTabularSource", err)
	}
}
