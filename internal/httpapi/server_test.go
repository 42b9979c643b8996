package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/atomicobject/org-viewer/internal/federation"
	"github.com/atomicobject/org-viewer/internal/peer"
	"github.com/atomicobject/org-viewer/internal/vaultindex"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "knowledge"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "knowledge", "note.md"), []byte("# Shared Note\n\ntags: foo\n"), 0o644))

	idx := vaultindex.New(root)
	_, err := idx.LoadOrBuild()
	require.NoError(t, err)

	peers := peer.New(root)
	sync := federation.New(root, idx, peers)

	return New(idx, peers, sync, nil), root
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleLocalSearchRequiresQuery(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFederationFileForbiddenOutsideSharedSurface(t *testing.T) {
	s, root := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "private.md"), []byte("# Secret\n"), 0o644))
	_, err := s.index.LoadOrBuild()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/federation/files/private.md", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleFederationFileAllowedInsideSharedSurface(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/federation/files/knowledge/note.md", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

// buildServer wires a Server over root with an explicit peer config,
// for tests that need more than the generated defaults.
func buildServer(t *testing.T, root string, cfg peer.Config) *Server {
	t.Helper()
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, peer.ConfigFileName), raw, 0o644))

	idx := vaultindex.New(root)
	_, err = idx.LoadOrBuild()
	require.NoError(t, err)
	peers := peer.New(root)
	return New(idx, peers, federation.New(root, idx, peers), nil)
}

func TestHandleFederationFileSharedTagDoesNotWidenSurface(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "private.md"), []byte("---\ntags: [public]\n---\n# Secret\n"), 0o644))

	s := buildServer(t, root, peer.Config{
		Self: peer.Self{
			InstanceID:    "self",
			DisplayName:   "Self",
			SharedFolders: []string{"knowledge/"},
			SharedTags:    []string{"public"},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/federation/files/private.md", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/federation/files?tag=public", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "private.md")
}

func TestHandleAdoptMapsPeerFailures(t *testing.T) {
	badPeer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer badPeer.Close()
	u, err := url.Parse(badPeer.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	root := t.TempDir()
	s := buildServer(t, root, peer.Config{
		Self: peer.Self{InstanceID: "self", DisplayName: "Self"},
		Peers: []peer.Entry{
			{Name: "bad", Host: u.Hostname(), Port: port, Protocol: "http"},
			{Name: "dead", Host: "127.0.0.1", Port: 1, Protocol: "http"},
		},
	})

	// Peer answered, but badly: 502.
	req := httptest.NewRequest(http.MethodPost, "/api/federation/adopt",
		strings.NewReader(`{"peer":"bad","sourcePath":"knowledge/x.md"}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	// Peer never answered: 504.
	req = httptest.NewRequest(http.MethodPost, "/api/federation/adopt",
		strings.NewReader(`{"peer":"dead","sourcePath":"knowledge/x.md"}`))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestHandleStatusReportsTotals(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total":1`)
}
