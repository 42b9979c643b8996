package vaultindex

import (
	"strings"

	"github.com/atomicobject/org-viewer/internal/vault"
)

// rebuildBacklinksLocked recomputes every document's Backlinks field from
// scratch; backlinks are derived, never authoritative input. Matching is
// name-based (file stem), case-insensitive, not path-based. Two files with
// the same stem in different directories both receive the backlink.
// Caller must hold idx.mu for writing.
func rebuildBacklinksLocked(entries map[string]CachedEntry) {
	type target struct {
		path string
		stem string
	}
	targets := make([]target, 0, len(entries))
	for path := range entries {
		targets = append(targets, target{path: path, stem: strings.ToLower(vault.Stem(path))})
	}

	backlinks := make(map[string][]string, len(entries))
	for _, referrer := range entries {
		referrerLinks := make(map[string]bool, len(referrer.Document.Links))
		for _, l := range referrer.Document.Links {
			referrerLinks[strings.ToLower(l)] = true
		}
		if len(referrerLinks) == 0 {
			continue
		}
		for _, t := range targets {
			if t.path == referrer.Document.Path {
				continue
			}
			if referrerLinks[t.stem] {
				backlinks[t.path] = append(backlinks[t.path], referrer.Document.Path)
			}
		}
	}

	for path, e := range entries {
		doc := e.Document
		doc.Backlinks = backlinks[path]
		e.Document = doc
		entries[path] = e
	}
}
