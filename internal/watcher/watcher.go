// Package watcher installs fsnotify watches across a vault and translates
// filesystem events into index mutations, coalescing bursts of events
// before applying them to the index.
package watcher

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/atomicobject/org-viewer/internal/vault"
	"github.com/atomicobject/org-viewer/internal/vaultindex"
	"github.com/fsnotify/fsnotify"
)

// pollInterval is how often coalesced dirty paths are drained and applied.
const pollInterval = 2 * time.Second

// Indexer is the subset of *vaultindex.Index the watcher needs, narrowed so
// tests can substitute a fake.
type Indexer interface {
	Refresh(relPath string) error
	Remove(relPath string) error
}

type dirtyKind int

const (
	dirtyUpdate dirtyKind = iota
	dirtyRemove
)

// Watcher watches a vault root and keeps an Indexer in sync, fanning out
// notifications to subscribers only after each mutation has completed and
// any index lock has already been released.
type Watcher struct {
	vaultRoot string
	index     Indexer
	fsw       *fsnotify.Watcher

	mu      sync.Mutex
	dirty   map[string]dirtyKind
	watched map[string]bool

	subsMu sync.Mutex
	subs   []Subscriber

	cancel context.CancelFunc
}

// New creates a Watcher bound to vaultRoot and index. Call Start to begin
// watching.
func New(vaultRoot string, index Indexer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		vaultRoot: vaultRoot,
		index:     index,
		fsw:       fsw,
		dirty:     make(map[string]dirtyKind),
		watched:   make(map[string]bool),
	}, nil
}

// Subscribe registers a Subscriber to receive change notifications.
func (w *Watcher) Subscribe(s Subscriber) {
	w.subsMu.Lock()
	w.subs = append(w.subs, s)
	w.subsMu.Unlock()
}

// Start installs watches on every admitted directory beneath the vault root
// and begins the event loop and the coalescing poll loop. It returns once
// the initial directory walk completes; the loops run in background
// goroutines until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	err := filepath.WalkDir(w.vaultRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.vaultRoot, path)
		if relErr != nil {
			return nil
		}
		if path != w.vaultRoot {
			rel = vault.NormalizePath(rel)
			if vaultindex.ShouldPruneDir(rel) {
				return filepath.SkipDir
			}
		}
		w.addWatch(path)
		return nil
	})
	if err != nil {
		return err
	}

	go w.eventLoop(ctx)
	go w.pollLoop(ctx)
	return nil
}

// Close stops the event and poll loops and releases the underlying fsnotify
// watcher.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	return w.fsw.Close()
}

func (w *Watcher) addWatch(absDir string) {
	w.mu.Lock()
	if w.watched[absDir] {
		w.mu.Unlock()
		return
	}
	w.watched[absDir] = true
	w.mu.Unlock()

	if err := w.fsw.Add(absDir); err != nil {
		log.Printf("watcher: failed to watch %s: %v", absDir, err)
	}
}

func (w *Watcher) relPath(absPath string) (string, bool) {
	rel, err := filepath.Rel(w.vaultRoot, absPath)
	if err != nil {
		return "", false
	}
	return vault.NormalizePath(rel), true
}

func (w *Watcher) markDirty(absPath string, kind dirtyKind) {
	rel, ok := w.relPath(absPath)
	if !ok || !vaultindex.IsAdmittedFile(rel) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.dirty[rel]; ok && existing == dirtyRemove {
		return
	}
	w.dirty[rel] = kind
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(evt)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(evt fsnotify.Event) {
	switch {
	case evt.Op&fsnotify.Create == fsnotify.Create:
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if rel, ok := w.relPath(evt.Name); ok && !vaultindex.ShouldPruneDir(rel) {
				w.addWatch(evt.Name)
			}
			return
		}
		w.markDirty(evt.Name, dirtyUpdate)
	case evt.Op&fsnotify.Write == fsnotify.Write:
		w.markDirty(evt.Name, dirtyUpdate)
	case evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.markDirty(evt.Name, dirtyRemove)
	}
}

func (w *Watcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain()
		}
	}
}

func (w *Watcher) drain() {
	w.mu.Lock()
	if len(w.dirty) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.dirty
	w.dirty = make(map[string]dirtyKind)
	w.mu.Unlock()

	for rel, kind := range batch {
		var applyErr error
		var changeKind ChangeKind
		switch kind {
		case dirtyRemove:
			applyErr = w.index.Remove(rel)
			changeKind = ChangeRemove
		default:
			applyErr = w.index.Refresh(rel)
			changeKind = ChangeUpdate
		}
		if applyErr != nil {
			if os.IsNotExist(applyErr) {
				// File disappeared between the write event and the refresh
				// attempt; treat it as a removal instead of retrying forever.
				_ = w.index.Remove(rel)
				changeKind = ChangeRemove
			} else {
				log.Printf("watcher: failed to apply change for %s: %v", rel, applyErr)
				continue
			}
		}

		// Notify only after the index mutation above has fully completed and
		// released its own lock; subscribers re-enter the index for reads.
		w.notify(Change{Path: rel, Kind: changeKind, TimeMilli: nowMilli()})
	}
}

func (w *Watcher) notify(c Change) {
	w.subsMu.Lock()
	subs := make([]Subscriber, len(w.subs))
	copy(subs, w.subs)
	w.subsMu.Unlock()

	for _, s := range subs {
		s.OnVaultChange(c)
	}
}

func nowMilli() int64 {
	return time.Now().UnixMilli()
}
