package vaultindex

import "strings"

// excludedDirNames are pruned outright wherever they occur.
var excludedDirNames = map[string]bool{
	"node_modules": true,
	".git":         true,
	".obsidian":    true,
	"scratchpad":   true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"target":       true,
	"x":            true,
}

// shouldPruneDir reports whether the directory at relPath (forward-slash,
// root-relative, non-empty) should be skipped entirely, including every
// file and subdirectory beneath it.
func shouldPruneDir(relPath string) bool {
	segments := strings.Split(relPath, "/")
	name := segments[len(segments)-1]

	if excludedDirNames[name] {
		return true
	}
	if strings.HasPrefix(name, ".") {
		// .obsidian is already covered by excludedDirNames; every other
		// dotdir is excluded too.
		return true
	}

	// The projects/ nested rule: admit projects/ itself and
	// projects/<name>/, but nothing deeper — CLAUDE.md/README.md live
	// directly inside projects/<name>/, never below it.
	if segments[0] == "projects" && len(segments) >= 3 {
		return true
	}

	return false
}

// isAdmittedFile reports whether the markdown file at relPath should be
// indexed, applying the projects/ nested rule to everything else under
// projects/.
func isAdmittedFile(relPath string) bool {
	segments := strings.Split(relPath, "/")
	name := segments[len(segments)-1]

	if strings.HasPrefix(name, ".") {
		return false
	}
	if !strings.HasSuffix(name, ".md") {
		return false
	}

	if segments[0] == "projects" {
		return len(segments) == 3 && (name == "CLAUDE.md" || name == "README.md")
	}

	return true
}

// ShouldPruneDir is the exported form of shouldPruneDir, used by
// internal/watcher to decide which directories to install fsnotify watches
// on without duplicating the exclusion rules.
func ShouldPruneDir(relPath string) bool { return shouldPruneDir(relPath) }

// IsAdmittedFile is the exported form of isAdmittedFile, used by
// internal/watcher to decide which filesystem events are worth forwarding
// to the index.
func IsAdmittedFile(relPath string) bool { return isAdmittedFile(relPath) }
