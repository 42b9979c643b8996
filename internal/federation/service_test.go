package federation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/atomicobject/org-viewer/internal/peer"
	"github.com/atomicobject/org-viewer/internal/vaultindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, host string, port int) *peer.Registry {
	t.Helper()
	root := t.TempDir()
	cfg := peer.Config{
		Self:  peer.Self{InstanceID: "self-id", DisplayName: "Self Vault"},
		Peers: []peer.Entry{{Name: "origin", Host: host, Port: port, Protocol: "http"}},
	}
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, peer.ConfigFileName), raw, 0o644))
	return peer.New(root)
}

func splitHostPort(t *testing.T, url string) (string, int) {
	t.Helper()
	hostport := strings.TrimPrefix(url, "http://")
	idx := strings.LastIndex(hostport, ":")
	require.True(t, idx > 0)
	port, err := strconv.Atoi(hostport[idx+1:])
	require.NoError(t, err)
	return hostport[:idx], port
}

func TestAdoptWritesFederationFrontmatter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/federation/hello" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"instanceId":  "peer-uuid",
				"displayName": "Origin Vault",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":  "# Shared note\n\nHello.\n",
			"checksum": "sha256:fixed",
			"frontmatter": map[string]interface{}{
				"type": "knowledge",
				"tags": []interface{}{"shared", "notes"},
			},
		})
	}))
	defer srv.Close()
	host, port := splitHostPort(t, srv.URL)

	root := t.TempDir()
	idx := vaultindex.New(root)
	_, err := idx.LoadOrBuild()
	require.NoError(t, err)
	reg := newTestRegistry(t, host, port)
	reg.PollNow(context.Background())
	svc := New(root, idx, reg)

	p := peer.Entry{Name: "origin", Host: host, Port: port, Protocol: "http"}
	localPath, checksum, err := svc.Adopt(context.Background(), p, "knowledge/shared-note.md", "")
	require.NoError(t, err)
	assert.Equal(t, "knowledge/shared-note.md", localPath)
	assert.Equal(t, "sha256:fixed", checksum)

	raw, err := os.ReadFile(filepath.Join(root, localPath))
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "origin-peer: 'peer-uuid'")
	assert.Contains(t, content, "origin-path: 'knowledge/shared-note.md'")
	assert.Contains(t, content, "sync-status: 'synced'")
	assert.Contains(t, content, "# Shared note")
}

func TestWriteIncomingCreatesInboxFile(t *testing.T) {
	root := t.TempDir()
	idx := vaultindex.New(root)
	reg := peer.New(root)
	svc := New(root, idx, reg)

	relPath, err := svc.WriteIncoming("remote-id", "Remote Team", "10.0.0.9:3847", "Shared Idea", "Some content.", []string{"ideas"}, "knowledge/idea.md", "take a look")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(relPath, "inbox/"))
	assert.True(t, strings.HasSuffix(relPath, "-from-remote-team-shared-idea.md"))

	raw, err := os.ReadFile(filepath.Join(root, relPath))
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "type: inbox")
	assert.Contains(t, content, "from-name: Remote Team")
	assert.Contains(t, content, "# Shared Idea")
	assert.Contains(t, content, "take a look")
}

func TestGetSharedDocumentsFiltersNonFederated(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "plain.md"), []byte("# Plain\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "shared.md"), []byte(sampleDoc), 0o644))

	idx := vaultindex.New(root)
	_, err := idx.LoadOrBuild()
	require.NoError(t, err)

	svc := New(root, idx, peer.New(root))
	shared := svc.GetSharedDocuments()
	require.Len(t, shared, 1)
	assert.Equal(t, "shared.md", shared[0].LocalPath)
	assert.Equal(t, "peer-a", shared[0].Meta.OriginPeer)
}

func TestHandleLocalChangeTransitionsToLocalModified(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "shared.md")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	idx := vaultindex.New(root)
	_, err := idx.LoadOrBuild()
	require.NoError(t, err)
	svc := New(root, idx, peer.New(root))

	edited := strings.Replace(sampleDoc, "Body content.", "Body content, edited locally.", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	svc.HandleLocalChange("shared.md")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	meta, ok := ExtractMeta(string(raw))
	require.True(t, ok)
	assert.Equal(t, StatusLocalModified, meta.SyncStatus)
}

func TestResolveKeepLocal(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "shared.md")
	conflictDoc := strings.Replace(sampleDoc, "sync-status: 'synced'", "sync-status: 'conflict'", 1)
	require.NoError(t, os.WriteFile(path, []byte(conflictDoc), 0o644))

	idx := vaultindex.New(root)
	_, err := idx.LoadOrBuild()
	require.NoError(t, err)
	svc := New(root, idx, peer.New(root))

	ok := svc.Resolve(context.Background(), "shared.md", ActionKeepLocal, "", "")
	assert.True(t, ok)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	meta, _ := ExtractMeta(string(raw))
	assert.Equal(t, StatusSynced, meta.SyncStatus)
}
