package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTitleFromHeading(t *testing.T) {
	doc := Parse("knowledge/foo.md", []byte("# My Title\n\nbody [[bar]]\n"))
	assert.Equal(t, "My Title", doc.Title)
	assert.Equal(t, TypeKnowledge, doc.Type)
	assert.Equal(t, []string{"bar"}, doc.Links)
}

func TestParseTitleFallsBackToStem(t *testing.T) {
	doc := Parse("tasks/do-thing.md", []byte("no heading here\n"))
	assert.Equal(t, "do-thing", doc.Title)
	assert.Equal(t, TypeTask, doc.Type)
}

func TestParseFrontmatterOverridesType(t *testing.T) {
	content := "---\ntype: tag-index\nstatus: active\ntags: [a, b]\ncreated: 2024-01-01\n---\n# T\n"
	doc := Parse("other/x.md", []byte(content))
	require.Equal(t, TypeTag, doc.Type)
	assert.Equal(t, "active", doc.Status)
	assert.Equal(t, []string{"a", "b"}, doc.Tags)
	assert.Equal(t, "2024-01-01", doc.Created)
}

func TestParseMalformedFrontmatterIsNonFatal(t *testing.T) {
	content := "---\n  not: [valid: yaml\n---\nbody\n"
	doc := Parse("x.md", []byte(content))
	assert.Equal(t, TypeOther, doc.Type)
	assert.Empty(t, doc.Tags)
}

func TestExtractWikilinksStripsAlias(t *testing.T) {
	links := ExtractWikilinks("see [[Target One|alias text]] and [[plain]]")
	assert.Equal(t, []string{"Target One", "plain"}, links)
}

func TestContentWithoutFrontmatter(t *testing.T) {
	content := "---\ntype: task\n---\nbody text\n"
	assert.Equal(t, "body text\n", ContentWithoutFrontmatter(content))
}
