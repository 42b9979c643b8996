package federation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `---
type: knowledge
tags: [shared]
federation:
  origin-peer: 'peer-a'
  origin-name: 'Team A'
  origin-host: '10.0.0.5:3847'
  origin-path: 'knowledge/notes.md'
  adopted-at: '2026-01-01T00:00:00Z'
  origin-checksum: 'sha256:aaa'
  local-checksum: 'sha256:aaa'
  sync-status: 'synced'
  last-sync-check: '2026-01-01T00:00:00Z'
---
# Notes

Body content.
`

func TestExtractMetaParsesFederationBlock(t *testing.T) {
	meta, ok := ExtractMeta(sampleDoc)
	require.True(t, ok)
	assert.Equal(t, "peer-a", meta.OriginPeer)
	assert.Equal(t, "10.0.0.5:3847", meta.OriginHost)
	assert.Equal(t, "synced", meta.SyncStatus)
}

func TestExtractMetaMissingFederationBlock(t *testing.T) {
	_, ok := ExtractMeta("---\ntype: knowledge\n---\n# Hi\n")
	assert.False(t, ok)
}

func TestUpdateFieldsIsSurgical(t *testing.T) {
	updated := UpdateFields(sampleDoc, map[string]string{
		"sync-status":     "conflict",
		"local-checksum":  "sha256:bbb",
		"last-sync-check": "2026-02-01T00:00:00Z",
	})

	meta, ok := ExtractMeta(updated)
	require.True(t, ok)
	assert.Equal(t, "conflict", meta.SyncStatus)
	assert.Equal(t, "sha256:bbb", meta.LocalChecksum)
	assert.Equal(t, "peer-a", meta.OriginPeer, "untouched fields must survive byte for byte")

	// Every non-updated line must be identical to the source.
	assert.Contains(t, updated, "  origin-peer: 'peer-a'")
	assert.Contains(t, updated, "tags: [shared]")
}

func TestBodyStripsFrontmatter(t *testing.T) {
	body := Body(sampleDoc)
	assert.Equal(t, "# Notes\n\nBody content.\n", body)
}

func TestChecksumFormat(t *testing.T) {
	sum := Checksum("hello")
	assert.True(t, len(sum) > len("sha256:"))
	assert.Equal(t, "sha256:", sum[:7])
	assert.Equal(t, Checksum("hello"), sum, "checksum must be deterministic")
	assert.NotEqual(t, Checksum("hello"), Checksum("world"))
}
