package document

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatterFence matches a leading YAML frontmatter block.
var frontmatterFence = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n?`)

// frontmatter is the subset of frontmatter fields the parser understands.
// Unknown keys are ignored; federation metadata is handled separately by
// internal/federation, which reads the raw frontmatter text rather than
// this struct (it needs byte-exact surgical edits, not a round trip).
type frontmatter struct {
	Type    string   `yaml:"type"`
	Status  string   `yaml:"status"`
	Tags    []string `yaml:"tags"`
	Created string   `yaml:"created"`
	Updated string   `yaml:"updated"`
}

// splitFrontmatter separates a leading "---\n...\n---\n" YAML block from the
// rest of the document. If there is no leading fence, fm is empty and body
// is the whole input.
func splitFrontmatter(content string) (fm string, body string) {
	loc := frontmatterFence.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", content
	}
	fm = content[loc[2]:loc[3]]
	body = content[loc[1]:]
	return fm, body
}

// parseFrontmatter parses the captured YAML block. Absent or malformed
// frontmatter yields a zero-value frontmatter, never an error.
func parseFrontmatter(raw string) frontmatter {
	var fm frontmatter
	if strings.TrimSpace(raw) == "" {
		return fm
	}

	// yaml.v3 fails to unmarshal "tags: foo" (scalar) into a []string, so
	// fall back to a loose map first and coerce tags ourselves.
	var loose map[string]interface{}
	if err := yaml.Unmarshal([]byte(raw), &loose); err != nil || loose == nil {
		return frontmatter{}
	}

	if v, ok := loose["type"].(string); ok {
		fm.Type = v
	}
	if v, ok := loose["status"].(string); ok {
		fm.Status = v
	}
	if v, ok := loose["created"]; ok {
		fm.Created = stringifyScalar(v)
	}
	if v, ok := loose["updated"]; ok {
		fm.Updated = stringifyScalar(v)
	}
	fm.Tags = coerceTags(loose["tags"])
	return fm
}

func stringifyScalar(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := yaml.Marshal(t)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
}

func coerceTags(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		var out []string
		for _, tag := range strings.Split(t, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				out = append(out, tag)
			}
		}
		return out
	default:
		return nil
	}
}
