package vaultindex

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestLoadOrBuildEmptyVault(t *testing.T) {
	root := t.TempDir()
	idx := New(root)
	stats, err := idx.LoadOrBuild()
	require.NoError(t, err)
	assert.Equal(t, LoadStats{}, stats)
	assert.Empty(t, idx.Search("anything"))
}

func TestLoadOrBuildThreeFileVault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n\n[[b]]\n")
	writeFile(t, root, "b.md", "# B\n")
	writeFile(t, root, "c.md", "# C\n")

	idx := New(root)
	stats, err := idx.LoadOrBuild()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Parsed)

	a, ok := idx.Get("a.md")
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, a.Links)

	b, ok := idx.Get("b.md")
	require.True(t, ok)
	assert.Equal(t, []string{"a.md"}, b.Backlinks)

	c, ok := idx.Get("c.md")
	require.True(t, ok)
	assert.Empty(t, c.Backlinks)
}

func TestIncrementalReloadReusesCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n[[b]]\n")
	writeFile(t, root, "b.md", "# B\n")
	writeFile(t, root, "c.md", "# C\n")

	idx := New(root)
	_, err := idx.LoadOrBuild()
	require.NoError(t, err)

	// Touch c.md's mtime/content only.
	time.Sleep(1100 * time.Millisecond)
	writeFile(t, root, "c.md", "# C changed\n")

	idx2 := New(root)
	stats, err := idx2.LoadOrBuild()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Cached)
	assert.Equal(t, 1, stats.Parsed)
	assert.Equal(t, 0, stats.Removed)
}

func TestRemovedFileDropsFromCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n")
	writeFile(t, root, "b.md", "# B\n")

	idx := New(root)
	_, err := idx.LoadOrBuild()
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "b.md")))

	idx2 := New(root)
	stats, err := idx2.LoadOrBuild()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Removed)
}

func TestProjectsNestedRuleAdmitsOnlyClaudeAndReadme(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "projects/foo/CLAUDE.md", "# Foo\n")
	writeFile(t, root, "projects/foo/README.md", "# Foo readme\n")
	writeFile(t, root, "projects/foo/notes.md", "# Foo notes\n")
	writeFile(t, root, "projects/foo/sub/deep.md", "# Deep\n")
	writeFile(t, root, "projects/bar.md", "# bar\n")

	idx := New(root)
	stats, err := idx.LoadOrBuild()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)

	for _, p := range idx.All() {
		segments := 0
		for _, r := range p.Path {
			if r == '/' {
				segments++
			}
		}
		assert.Equal(t, 2, segments, "path %q must have exactly 3 segments", p.Path)
	}
}

func TestExcludedDirectoriesArePruned(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/pkg/readme.md", "# nm\n")
	writeFile(t, root, ".git/HEAD.md", "# git\n")
	writeFile(t, root, ".obsidian/workspace.md", "# obs\n")
	writeFile(t, root, "knowledge/keep.md", "# keep\n")

	idx := New(root)
	stats, err := idx.LoadOrBuild()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}

func TestRefreshAndRemove(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n")
	idx := New(root)
	_, err := idx.LoadOrBuild()
	require.NoError(t, err)

	writeFile(t, root, "a.md", "# A updated\n")
	require.NoError(t, idx.Refresh("a.md"))
	a, ok := idx.Get("a.md")
	require.True(t, ok)
	assert.Equal(t, "A updated", a.Title)

	require.NoError(t, idx.Remove("a.md"))
	_, ok = idx.Get("a.md")
	assert.False(t, ok)
}

func TestCachePersistsAcrossLoads(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n")

	idx := New(root)
	_, err := idx.LoadOrBuild()
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(root, CacheFileName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version": 1`)
}
