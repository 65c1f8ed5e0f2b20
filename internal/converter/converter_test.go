package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vaultport/internal/apperr"
	"github.com/starford/vaultport/internal/index"
	"github.com/starford/vaultport/internal/storage"
	"github.com/starford/vaultport/internal/testutil"
	"github.com/starford/vaultport/internal/transform"
)

const (
	homeDir = "Home 0123456789abcdef0123456789abcdef"
	homeRel = homeDir + ".md"
	subRel  = homeDir + "/Sub Page fedcba9876543210fedcba9876543210.md"
	csvRel  = homeDir + "/Tasks a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4.csv"
)

var stamp = time.Date(2024, 3, 5, 12, 0, 0, 0, time.Local)

func exportTree() map[string]string {
	enc := strings.ReplaceAll(homeDir, " ", "%20")
	return map[string]string{
		homeRel: "#Home\n\nSee [Sub Page](" + enc + "/Sub%20Page%20fedcba9876543210fedcba9876543210.md).\n\n" +
			"![diagram](" + enc + "/diagram.png)\n",
		subRel:                   "# Sub Page\n\n-item\n",
		homeDir + "/diagram.png": "PNGDATA",
		csvRel:                   "Name,Status\nWrite docs,Done\n",
	}
}

type env struct {
	srcDir, dstDir string
	src, dst       *storage.FS
}

func newEnv(t *testing.T, files map[string]string) env {
	t.Helper()
	srcDir, src := testutil.TestVault(t)
	dstDir, dst := testutil.TestVault(t)
	testutil.WriteTree(t, srcDir, files, stamp)
	return env{srcDir: srcDir, dstDir: dstDir, src: src, dst: dst}
}

func snapshot(t *testing.T, fs *storage.FS) map[string]string {
	t.Helper()
	files, err := fs.List("")
	require.NoError(t, err)
	out := make(map[string]string, len(files))
	for _, f := range files {
		data, err := fs.Read(f.Path)
		require.NoError(t, err)
		out[f.Path] = string(data)
	}
	return out
}

func TestRun_EndToEnd(t *testing.T) {
	e := newEnv(t, exportTree())

	res, err := New(e.src, e.dst).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Documents)
	assert.Equal(t, 1, res.Databases)
	assert.Equal(t, 2, res.Assets, "image and csv")
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 1, res.Linked)

	home := testutil.ReadFile(t, e.dstDir, "Home.md")
	assert.True(t, strings.HasPrefix(home, "---\nsource: notion\ncreated: 2024-03-05\n---\n\n# Home\n"), home)
	assert.Contains(t, home, "See [[Sub Page]].")
	assert.Contains(t, home, "![[diagram.png]]")
	assert.Contains(t, home, "## Databases")
	assert.Contains(t, home, `FROM "Home/Home_Database"`)

	sub := testutil.ReadFile(t, e.dstDir, "Home/Sub Page.md")
	assert.Contains(t, sub, "- item")

	assert.True(t, e.dst.Exists("Home/Home_Database/Write docs.md"))
	assert.True(t, e.dst.Exists("Home/Home_Database/Home_Index.md"))
	assert.Equal(t, "PNGDATA", testutil.ReadFile(t, e.dstDir, "attachments/diagram.png"))
	assert.True(t, e.dst.Exists("attachments/Tasks.csv"))
}

func TestRun_Idempotent(t *testing.T) {
	e := newEnv(t, exportTree())

	_, err := New(e.src, e.dst).Run(context.Background())
	require.NoError(t, err)
	first := snapshot(t, e.dst)

	_, err = New(e.src, e.dst).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, snapshot(t, e.dst))
}

func TestRun_CollisionLastWins(t *testing.T) {
	e := newEnv(t, map[string]string{
		"Note 0123456789abcdef0123456789abcdef.md": "first\n",
		"Note.md": "second\n",
	})

	res, err := New(e.src, e.dst).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Documents)
	assert.Equal(t, 1, res.Skipped)
	assert.Contains(t, testutil.ReadFile(t, e.dstDir, "Note.md"), "second")
}

func TestRun_AssetDeduplication(t *testing.T) {
	e := newEnv(t, map[string]string{
		"a/pic.png": "A",
		"b/pic.png": "B",
	})

	res, err := New(e.src, e.dst).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Assets)
	assert.Equal(t, "A", testutil.ReadFile(t, e.dstDir, "attachments/pic.png"))
	assert.Equal(t, "B", testutil.ReadFile(t, e.dstDir, "attachments/pic_1.png"))

	_, err = New(e.src, e.dst).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, e.dst.Exists("attachments/pic_2.png"), "rerun must reuse identical copies")
}

func TestRun_EmbedsNameDeduplicatedAsset(t *testing.T) {
	e := newEnv(t, map[string]string{
		"a/pic.png":   "A",
		"b/pic.png":   "B",
		"a/Page A.md": "![x](pic.png)\n",
		"b/Page B.md": "![x](pic.png)\n",
		"b/Nested.md": "![x](../a/pic.png)\n",
		"Top.md":      "![x](b/pic.png)\n",
	})

	_, err := New(e.src, e.dst).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", testutil.ReadFile(t, e.dstDir, "attachments/pic.png"))
	assert.Equal(t, "B", testutil.ReadFile(t, e.dstDir, "attachments/pic_1.png"))
	assert.Contains(t, testutil.ReadFile(t, e.dstDir, "a/Page A.md"), "![[pic.png]]")
	assert.Contains(t, testutil.ReadFile(t, e.dstDir, "b/Page B.md"), "![[pic_1.png]]")
	assert.Contains(t, testutil.ReadFile(t, e.dstDir, "b/Nested.md"), "![[pic.png]]")
	assert.Contains(t, testutil.ReadFile(t, e.dstDir, "Top.md"), "![[pic_1.png]]")
}

type failingRead struct {
	storage.Provider
	path string
}

func (f failingRead) Read(p string) ([]byte, error) {
	if p == f.path {
		return nil, errors.New("disk on fire")
	}
	return f.Provider.Read(p)
}

func TestRun_DocumentFailureIsSkipped(t *testing.T) {
	e := newEnv(t, exportTree())

	res, err := New(failingRead{Provider: e.src, path: subRel}, e.dst).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Documents)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, subRel, res.Failures[0].Source)
	assert.Equal(t, index.KindDocument, res.Failures[0].Kind)
	assert.True(t, e.dst.Exists("Home.md"))
	assert.False(t, e.dst.Exists("Home/Sub Page.md"))
}

type failingWrite struct {
	storage.Provider
}

func (f failingWrite) Write(p string, _ []byte) error {
	return fmt.Errorf("storage: write %s: %w", p, apperr.ErrFilesystemWrite)
}

func TestRun_WriteFailureAborts(t *testing.T) {
	e := newEnv(t, map[string]string{"Page.md": "text\n"})

	_, err := New(e.src, failingWrite{Provider: e.dst}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrFilesystemWrite)
}

func TestRun_Cancelled(t *testing.T) {
	e := newEnv(t, exportTree())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(e.src, e.dst).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_CatalogAndSkipUnchanged(t *testing.T) {
	e := newEnv(t, exportTree())
	cat := testutil.TestCatalog(t)
	var events []string
	opts := []Option{
		WithCatalog(cat),
		WithSkipUnchanged(true),
		WithEvents(func(kind, path string) { events = append(events, kind+":"+path) }),
	}

	res, err := New(e.src, e.dst, opts...).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Documents)
	assert.Contains(t, events, EventConverted+":"+homeRel)
	assert.Contains(t, events, EventLinked+":")

	entry, err := cat.Get(homeRel)
	require.NoError(t, err)
	assert.Equal(t, "Home.md", entry.Dest)
	assert.Equal(t, "Home", entry.Title)
	assert.Equal(t, index.StatusConverted, entry.Status)

	backlinks, err := cat.Backlinks("Sub Page")
	require.NoError(t, err)
	assert.Equal(t, []string{"Home.md"}, backlinks)

	_, total, err := cat.List(index.ListFilter{Kind: index.KindAsset})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	_, total, err = cat.List(index.ListFilter{Kind: index.KindDatabase})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	events = nil
	res, err = New(e.src, e.dst, opts...).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Documents)
	assert.Equal(t, 2, res.Skipped)
	assert.NotContains(t, events, EventConverted+":"+homeRel)
	assert.Equal(t, 1, strings.Count(testutil.ReadFile(t, e.dstDir, "Home.md"), "## Databases"))
}

func TestConvertAndRemoveDocument(t *testing.T) {
	e := newEnv(t, exportTree())
	cat := testutil.TestCatalog(t)
	var events []string
	c := New(e.src, e.dst, WithCatalog(cat), WithEvents(func(kind, path string) {
		events = append(events, kind+":"+path)
	}))
	ctx := context.Background()
	_, err := c.Run(ctx)
	require.NoError(t, err)

	added := homeDir + "/New 99999999999999999999999999999999.md"
	testutil.WriteTree(t, e.srcDir, map[string]string{added: "#New\n"}, stamp)
	require.NoError(t, c.ConvertDocument(ctx, added))
	assert.Contains(t, testutil.ReadFile(t, e.dstDir, "Home/New.md"), "# New")

	require.NoError(t, os.Remove(filepath.Join(e.srcDir, filepath.FromSlash(subRel))))
	require.NoError(t, c.RemoveDocument(ctx, subRel))
	assert.False(t, e.dst.Exists("Home/Sub Page.md"))
	_, err = cat.Get(subRel)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Contains(t, events, EventRemoved+":"+subRel)

	_, ok := c.Mapping().Lookup(subRel)
	assert.False(t, ok)
}

func TestConvertContent(t *testing.T) {
	e := newEnv(t, nil)
	out := New(e.src, e.dst).ConvertContent("#Title\n\nText  \n", "page.md")
	assert.True(t, strings.HasPrefix(out, "---\nsource: notion\n---\n\n# Title\n"), out)
	assert.NotContains(t, out, "created:")
	assert.Contains(t, out, "Text\n")
}

func TestConvertContent_KeepsFlowLists(t *testing.T) {
	e := newEnv(t, nil)
	out := New(e.src, e.dst).ConvertContent("---\ntags: [a, b]\naliases: ['x']\n---\nBody\n", "Page.md")
	assert.Equal(t, "---\ntags:\n  - a\n  - b\naliases:\n  - x\nsource: notion\n---\n\nBody\n", out)
}

func TestWithPasses(t *testing.T) {
	e := newEnv(t, nil)
	c := New(e.src, e.dst, WithPasses(transform.Lift("upper", strings.ToUpper)))
	assert.Contains(t, c.ConvertContent("hello\n", "x.md"), "HELLO")
}

func TestCopyAsset_ReusesName(t *testing.T) {
	e := newEnv(t, map[string]string{"img/logo.png": "v1"})
	c := New(e.src, e.dst)
	ctx := context.Background()

	dest, err := c.CopyAsset(ctx, "img/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "attachments/logo.png", dest)

	testutil.WriteTree(t, e.srcDir, map[string]string{"img/logo.png": "v2"}, time.Time{})
	dest, err = c.CopyAsset(ctx, "img/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "attachments/logo.png", dest)
	assert.Equal(t, "v2", testutil.ReadFile(t, e.dstDir, "attachments/logo.png"))
	assert.True(t, c.IsAsset("a/B.PNG"))
	assert.False(t, c.IsAsset("a/b.md"))
}
