package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndexer struct {
	mu       sync.Mutex
	refresh  []string
	removed  []string
	refreshFn func(string) error
}

func (f *fakeIndexer) Refresh(relPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh = append(f.refresh, relPath)
	if f.refreshFn != nil {
		return f.refreshFn(relPath)
	}
	return nil
}

func (f *fakeIndexer) Remove(relPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, relPath)
	return nil
}

func (f *fakeIndexer) snapshot() (refresh, removed []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.refresh...), append([]string(nil), f.removed...)
}

type fakeSubscriber struct {
	mu      sync.Mutex
	changes []Change
}

func (f *fakeSubscriber) OnVaultChange(c Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, c)
}

func (f *fakeSubscriber) snapshot() []Change {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Change(nil), f.changes...)
}

func TestWatcherRefreshesOnCreateAndWrite(t *testing.T) {
	root := t.TempDir()
	idx := &fakeIndexer{}
	sub := &fakeSubscriber{}

	w, err := New(root, idx)
	require.NoError(t, err)
	defer w.Close()
	w.Subscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# A\n"), 0o644))

	require.Eventually(t, func() bool {
		r, _ := idx.snapshot()
		return len(r) == 1 && r[0] == "a.md"
	}, 4*time.Second, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(sub.snapshot()) == 1
	}, time.Second, 20*time.Millisecond)

	changes := sub.snapshot()
	assert.Equal(t, ChangeUpdate, changes[0].Kind)
	assert.Equal(t, "a.md", changes[0].Path)
}

func TestWatcherRemovesOnDelete(t *testing.T) {
	root := t.TempDir()
	idx := &fakeIndexer{}

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# A\n"), 0o644))

	w, err := New(root, idx)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.Remove(filepath.Join(root, "a.md")))

	require.Eventually(t, func() bool {
		_, removed := idx.snapshot()
		return len(removed) == 1 && removed[0] == "a.md"
	}, 4*time.Second, 50*time.Millisecond)
}

func TestWatcherIgnoresExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	idx := &fakeIndexer{}

	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))

	w, err := New(root, idx)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "x.md"), []byte("# x\n"), 0o644))

	time.Sleep(3 * time.Second)
	r, removed := idx.snapshot()
	assert.Empty(t, r)
	assert.Empty(t, removed)
}
