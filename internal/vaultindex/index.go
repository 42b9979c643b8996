package vaultindex

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/atomicobject/org-viewer/internal/document"
	"github.com/atomicobject/org-viewer/internal/vault"
)

// Index is the in-memory, on-disk-cached view of every markdown file
// beneath a vault root. Many concurrent readers (HTTP handlers, sync
// polling, shared-document listing) or one writer (the watcher's
// refresh/remove calls) share it behind a sync.RWMutex.
type Index struct {
	vaultRoot string

	mu      sync.RWMutex
	entries map[string]CachedEntry
}

// New constructs an Index bound to vaultRoot. Call LoadOrBuild before use.
func New(vaultRoot string) *Index {
	return &Index{
		vaultRoot: vaultRoot,
		entries:   make(map[string]CachedEntry),
	}
}

func (idx *Index) cachePath() string {
	return filepath.Join(idx.vaultRoot, CacheFileName)
}

// LoadOrBuild walks the vault, reuses cached entries whose mtime matches
// the file on disk, re-parses everything else, drops entries for files no
// longer on disk, recomputes backlinks globally, and persists the cache.
func (idx *Index) LoadOrBuild() (LoadStats, error) {
	cached := loadCacheFile(idx.cachePath())

	fresh := make(map[string]CachedEntry)
	var stats LoadStats

	walkErr := filepath.WalkDir(idx.vaultRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == idx.vaultRoot {
			return nil
		}
		rel, relErr := filepath.Rel(idx.vaultRoot, path)
		if relErr != nil {
			return nil
		}
		rel = vault.NormalizePath(rel)

		if d.IsDir() {
			if shouldPruneDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isAdmittedFile(rel) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		mtime := info.ModTime().Unix()

		if prev, ok := cached[rel]; ok && prev.MTimeSecs == mtime {
			fresh[rel] = prev
			stats.Cached++
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		doc := document.Parse(rel, content)
		fresh[rel] = CachedEntry{Document: doc, MTimeSecs: mtime}
		stats.Parsed++
		return nil
	})
	if walkErr != nil {
		return LoadStats{}, walkErr
	}

	for path := range cached {
		if _, ok := fresh[path]; !ok {
			stats.Removed++
		}
	}

	idx.mu.Lock()
	idx.entries = fresh
	rebuildBacklinksLocked(idx.entries)
	idx.mu.Unlock()

	stats.Total = len(fresh)
	if err := idx.persist(); err != nil {
		return stats, err
	}
	return stats, nil
}

// Refresh re-parses one file from disk, used by the
// watcher on create/modify events.
func (idx *Index) Refresh(relPath string) error {
	relPath = vault.NormalizePath(relPath)
	absPath := filepath.Join(idx.vaultRoot, relPath)

	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}
	doc := document.Parse(relPath, content)

	idx.mu.Lock()
	idx.entries[relPath] = CachedEntry{Document: doc, MTimeSecs: info.ModTime().Unix()}
	rebuildBacklinksLocked(idx.entries)
	idx.mu.Unlock()

	return idx.persist()
}

// Remove drops one entry, used by the watcher on
// remove events.
func (idx *Index) Remove(relPath string) error {
	relPath = vault.NormalizePath(relPath)

	idx.mu.Lock()
	delete(idx.entries, relPath)
	rebuildBacklinksLocked(idx.entries)
	idx.mu.Unlock()

	return idx.persist()
}

// Get returns a copy of one cached document. Content is left empty; use
// GetWithContent to read the body from disk.
func (idx *Index) Get(relPath string) (document.Document, bool) {
	relPath = vault.NormalizePath(relPath)

	idx.mu.RLock()
	entry, ok := idx.entries[relPath]
	idx.mu.RUnlock()
	if !ok {
		return document.Document{}, false
	}
	return entry.Document, true
}

// GetWithContent returns a document with Content populated by reading the
// file fresh from disk.
func (idx *Index) GetWithContent(relPath string) (document.Document, bool) {
	doc, ok := idx.Get(relPath)
	if !ok {
		return document.Document{}, false
	}
	raw, err := os.ReadFile(filepath.Join(idx.vaultRoot, doc.Path))
	if err == nil {
		doc.Content = document.ContentWithoutFrontmatter(string(raw))
	}
	return doc, true
}

// All returns a copy of every indexed document, sorted by path for
// deterministic iteration.
func (idx *Index) All() []document.Document {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	docs := make([]document.Document, 0, len(idx.entries))
	for _, e := range idx.entries {
		docs = append(docs, e.Document)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs
}

// Stats computes totals and histograms by type and status.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s := Stats{
		ByType:   make(map[document.Type]int),
		ByStatus: make(map[string]int),
	}
	for _, e := range idx.entries {
		s.Total++
		s.ByType[e.Document.Type]++
		if e.Document.Status != "" {
			s.ByStatus[e.Document.Status]++
		}
	}
	return s
}

// VaultRoot returns the absolute vault root path.
func (idx *Index) VaultRoot() string { return idx.vaultRoot }

func (idx *Index) persist() error {
	idx.mu.RLock()
	entries := make(map[string]CachedEntry, len(idx.entries))
	for k, v := range idx.entries {
		entries[k] = v
	}
	idx.mu.RUnlock()

	return saveCacheFile(idx.cachePath(), entries)
}
