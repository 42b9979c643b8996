// Package document implements the markdown parser: title extraction,
// frontmatter, wiki-link extraction, and type resolution. It never touches
// the filesystem — all I/O is the caller's responsibility.
package document

import (
	"regexp"
	"strings"

	"github.com/atomicobject/org-viewer/internal/vault"
)

// Type is the closed set of document types.
type Type string

const (
	TypeTask      Type = "task"
	TypeKnowledge Type = "knowledge"
	TypeInbox     Type = "inbox"
	TypeProject   Type = "project"
	TypeTag       Type = "tag"
	TypeOther     Type = "other"
)

// Document is a parsed markdown file.
type Document struct {
	Path      string   `json:"path"`
	Title     string   `json:"title"`
	Type      Type     `json:"type"`
	Status    string   `json:"status,omitempty"`
	Tags      []string `json:"tags"`
	Created   string   `json:"created,omitempty"`
	Updated   string   `json:"updated,omitempty"`
	Links     []string `json:"links"`
	Backlinks []string `json:"backlinks"`
	Content   string   `json:"content,omitempty"`
}

var headingRegex = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// Parse builds a Document from raw file bytes. relPath must already be
// root-relative and forward-slash normalized (the caller owns I/O and path
// math); it doubles as the title fallback when the body has no H1.
func Parse(relPath string, content []byte) Document {
	text := string(content)
	relPath = vault.NormalizePath(relPath)

	fm, body := splitFrontmatter(text)
	meta := parseFrontmatter(fm)

	doc := Document{
		Path:    relPath,
		Title:   extractTitle(body, relPath),
		Status:  meta.Status,
		Tags:    meta.Tags,
		Created: meta.Created,
		Updated: meta.Updated,
		Links:   ExtractWikilinks(text),
	}
	doc.Type = resolveType(meta.Type, relPath)
	return doc
}

func extractTitle(body, relPath string) string {
	if m := headingRegex.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	return vault.Stem(relPath)
}

// resolveType resolves the document type: an explicit frontmatter type
// (lowercased, tag-index aliased to tag) first, then first-path-segment
// rules, else "other".
func resolveType(frontmatterType, relPath string) Type {
	if frontmatterType != "" {
		t := strings.ToLower(strings.TrimSpace(frontmatterType))
		switch t {
		case "task":
			return TypeTask
		case "knowledge":
			return TypeKnowledge
		case "inbox":
			return TypeInbox
		case "project":
			return TypeProject
		case "tag", "tag-index":
			return TypeTag
		}
	}

	first, _, _ := strings.Cut(relPath, "/")
	switch first {
	case "tasks":
		return TypeTask
	case "knowledge":
		return TypeKnowledge
	case "inbox":
		return TypeInbox
	case "projects":
		return TypeProject
	case "tags":
		return TypeTag
	default:
		return TypeOther
	}
}

// ContentWithoutFrontmatter strips the leading YAML fence, if any, and
// returns the raw body bytes — used by the federation package to compute
// body-only checksums.
func ContentWithoutFrontmatter(content string) string {
	_, body := splitFrontmatter(content)
	return body
}
