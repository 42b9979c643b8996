// Package vault holds small helpers shared across the index, watcher, peer,
// and federation packages: path normalization, file stems, and slugging.
package vault

import (
	"path/filepath"
	"strings"
)

// NormalizePath converts an OS path into the forward-slash, root-relative
// form used as the primary key everywhere in the index and federation
// metadata.
func NormalizePath(p string) string {
	return filepath.ToSlash(strings.TrimPrefix(p, "./"))
}

// Stem returns the filename with its extension removed, used for
// name-based backlink resolution.
func Stem(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
