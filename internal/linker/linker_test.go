package linker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vaultport/internal/storage"
)

func tempVault(t *testing.T) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	return fs
}

func write(t *testing.T, fs *storage.FS, rel, content string) {
	t.Helper()
	require.NoError(t, fs.Write(rel, []byte(content)))
}

func TestRunEmbedsSectionOnce(t *testing.T) {
	vault := tempVault(t)
	write(t, vault, "Home.md", "# Home\n\nIntro\n")
	write(t, vault, "Home/Tasks_Database/Task.md", "# Task\n")
	write(t, vault, "Home/Tasks_Database/Tasks_Index.md", "# Tasks Database\n")
	write(t, vault, "Home/Books_Database/Dune.md", "# Dune\n")
	write(t, vault, "Home/Child.md", "# Child\n")
	write(t, vault, "Other.md", "# Other\n")

	l := New(vault, nil)
	res, err := l.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Linked)
	assert.Equal(t, 0, res.Failed)

	data, err := vault.Read("Home.md")
	require.NoError(t, err)
	got := string(data)
	assert.True(t, strings.HasPrefix(got, "# Home\n\nIntro\n\n---\n\n## Databases\n\n"))
	assert.Less(t, strings.Index(got, "### Books"), strings.Index(got, "### Tasks"), "folders sorted")
	assert.Contains(t, got, "```dataview\nLIST\nFROM \"Home/Tasks_Database\"\nWHERE contains(tags, \"database-item\")\nSORT file.name ASC\n```")
	assert.Contains(t, got, "*[View full database](Home/Tasks_Database/Tasks_Index.md)*")

	res, err = l.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Linked)
	again, _ := vault.Read("Home.md")
	assert.Equal(t, got, string(again))
}

func TestLinkPageNestedScope(t *testing.T) {
	vault := tempVault(t)
	write(t, vault, "Work/My Page.md", "body")
	write(t, vault, "Work/My Page/Notes_Database/a.md", "a")

	linked, err := New(vault, nil).LinkPage("Work/My Page.md")
	require.NoError(t, err)
	require.True(t, linked)

	data, _ := vault.Read("Work/My Page.md")
	assert.Contains(t, string(data), `FROM "Work/My Page/Notes_Database"`)
	assert.Contains(t, string(data), "(My%20Page/Notes_Database/Notes_Index.md)")
}

func TestLinkPageSkips(t *testing.T) {
	vault := tempVault(t)
	write(t, vault, "Plain.md", "x")
	write(t, vault, "Plain/Sub/a.md", "a")
	write(t, vault, "Has.md", "# Has\n\n## databases\n")
	write(t, vault, "Has/X_Database/a.md", "a")

	l := New(vault, nil)
	for _, rel := range []string{"Plain.md", "Has.md", "Missing.md"} {
		linked, err := l.LinkPage(rel)
		require.NoError(t, err, rel)
		assert.False(t, linked, rel)
	}
}

func TestEligible(t *testing.T) {
	assert.True(t, Eligible("Home.md"))
	assert.False(t, Eligible("Tasks_Index.md"))
	assert.False(t, Eligible("Home/Tasks_Database/Row.md"))
}
