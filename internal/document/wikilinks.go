package document

import (
	"path/filepath"
	"regexp"
)

// wikilinkRegex matches [[target]] and [[target|alias]], capturing only the
// target.
var wikilinkRegex = regexp.MustCompile(`\[\[([^\]|]+)(?:\|[^\]]+)?\]\]`)

// ExtractWikilinks returns every [[target]] in content, stripped of any
// |alias suffix, path-separator-normalized.
func ExtractWikilinks(content string) []string {
	matches := wikilinkRegex.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		links = append(links, filepath.ToSlash(m[1]))
	}
	return links
}
