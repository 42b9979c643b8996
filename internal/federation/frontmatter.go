package federation

import (
	"fmt"
	"regexp"
	"strings"
)

var frontmatterFence = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n?`)

// ExtractMeta pulls the federation frontmatter block out of a document's
// raw content, if present. Parsing is line-oriented rather than a full YAML
// unmarshal because UpdateFields must later perform surgical in-place edits
// on the very same text without reformatting surrounding user frontmatter.
func ExtractMeta(content string) (Meta, bool) {
	fm := frontmatterFence.FindStringSubmatch(content)
	if fm == nil {
		return Meta{}, false
	}
	text := fm[1]
	if !strings.Contains(text, "federation:") {
		return Meta{}, false
	}

	var meta Meta
	inBlock := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "federation:" {
			inBlock = true
			continue
		}
		if !inBlock {
			continue
		}
		if trimmed != "" && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			break
		}
		key, value, ok := parseYAMLField(trimmed)
		if !ok {
			continue
		}
		switch key {
		case "origin-peer":
			meta.OriginPeer = value
		case "origin-name":
			meta.OriginName = value
		case "origin-host":
			meta.OriginHost = value
		case "origin-path":
			meta.OriginPath = value
		case "adopted-at":
			meta.AdoptedAt = value
		case "origin-checksum":
			meta.OriginChecksum = value
		case "local-checksum":
			meta.LocalChecksum = value
		case "sync-status":
			meta.SyncStatus = value
		case "last-sync-check":
			meta.LastSyncCheck = value
		}
	}

	if meta.OriginPeer == "" {
		return Meta{}, false
	}
	return meta, true
}

func parseYAMLField(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if len(value) >= 2 {
		if (value[0] == '\'' && value[len(value)-1] == '\'') || (value[0] == '"' && value[len(value)-1] == '"') {
			value = value[1 : len(value)-1]
		}
	}
	return key, value, true
}

// frontmatterEnd returns the byte offset just past the closing frontmatter
// fence, or 0 if content has none.
func frontmatterEnd(content string) int {
	loc := frontmatterFence.FindStringIndex(content)
	if loc == nil {
		return 0
	}
	return loc[1]
}

// Body returns content with its leading frontmatter fence stripped, used to
// compute body-only checksums. The hash must never cover the federation
// block itself, which mutates on every sync check.
func Body(content string) string {
	end := frontmatterEnd(content)
	return strings.TrimPrefix(content[end:], "\n")
}

// replaceAfterFrontmatter rewrites everything past the frontmatter fence,
// used by Resolve's accept-origin/merge actions.
func replaceAfterFrontmatter(content, newBody string) string {
	end := frontmatterEnd(content)
	return content[:end] + "\n" + newBody
}

// UpdateFields performs a surgical, single-field regex substitution for
// each key in updates, leaving every other line of the document's
// frontmatter byte-for-byte untouched. A full YAML round-trip would
// reorder keys and reformat the user's surrounding frontmatter.
func UpdateFields(content string, updates map[string]string) string {
	result := content
	for key, value := range updates {
		pattern := fmt.Sprintf(`(?m)^(\s*%s:)\s*'[^']*'`, regexp.QuoteMeta(key))
		re := regexp.MustCompile(pattern)
		escaped := strings.ReplaceAll(value, "'", "''")
		result = re.ReplaceAllString(result, fmt.Sprintf("${1} '%s'", escaped))
	}
	return result
}
