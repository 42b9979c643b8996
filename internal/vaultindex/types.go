// Package vaultindex implements the document index: an incrementally-updated,
// on-disk-cached view of every markdown file beneath a vault root, including
// fuzzy search, stats, and the name-based backlink graph.
package vaultindex

import "github.com/atomicobject/org-viewer/internal/document"

// CacheFileName is the on-disk cache filename, relative to the vault root.
const CacheFileName = ".org-viewer-index.json"

// cacheVersion is the only schema-evolution knob the cache carries. There
// is no migration tooling; a mismatch just forces a rebuild.
const cacheVersion = 1

// CachedEntry pairs a parsed Document with the mtime (whole seconds since
// epoch) observed at parse time.
type CachedEntry struct {
	Document  document.Document `json:"document"`
	MTimeSecs int64             `json:"mtime_secs"`
}

// cacheFile is the persisted shape: {version, entries: {path: CachedEntry}}.
type cacheFile struct {
	Version int                    `json:"version"`
	Entries map[string]CachedEntry `json:"entries"`
}

// LoadStats reports the outcome of LoadOrBuild.
type LoadStats struct {
	Total   int
	Cached  int
	Parsed  int
	Removed int
}

// Stats summarizes the indexed corpus.
type Stats struct {
	Total    int                   `json:"total"`
	ByType   map[document.Type]int `json:"byType"`
	ByStatus map[string]int        `json:"byStatus"`
}

// SearchResult is one scored hit from Search.
type SearchResult struct {
	Document document.Document `json:"document"`
	Score    int               `json:"score"`
}
