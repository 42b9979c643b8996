package vaultindex

import (
	"encoding/json"
	"os"
)

// loadCacheFile reads the persisted index cache. A missing or corrupt file
// is non-fatal; callers fall back to a full rebuild.
func loadCacheFile(path string) map[string]CachedEntry {
	raw, err := os.ReadFile(path)
	if err != nil {
		return map[string]CachedEntry{}
	}

	var cf cacheFile
	if err := json.Unmarshal(raw, &cf); err != nil || cf.Entries == nil || cf.Version != cacheVersion {
		return map[string]CachedEntry{}
	}
	return cf.Entries
}

// saveCacheFile persists the index as pretty JSON.
func saveCacheFile(path string, entries map[string]CachedEntry) error {
	cf := cacheFile{Version: cacheVersion, Entries: entries}
	raw, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
