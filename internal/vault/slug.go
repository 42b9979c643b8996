package vault

import "strings"

// Slug lowercases s and replaces every non-alphanumeric codepoint with '-',
// truncating to maxLen runes. maxLen <= 0 means no truncation. Used for
// inbox filenames.
func Slug(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
		if maxLen > 0 && b.Len() >= maxLen {
			break
		}
	}
	out := b.String()
	if maxLen > 0 && len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}
