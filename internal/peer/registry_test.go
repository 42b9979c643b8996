package peer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesConfigWithFreshIdentity(t *testing.T) {
	root := t.TempDir()
	r := New(root)

	self := r.Self()
	assert.NotEmpty(t, self.InstanceID)
	assert.Equal(t, "My Org", self.DisplayName)
	assert.Equal(t, []string{"knowledge/"}, self.SharedFolders)

	raw, err := os.ReadFile(filepath.Join(root, ConfigFileName))
	require.NoError(t, err)
	var cfg Config
	require.NoError(t, json.Unmarshal(raw, &cfg))
	assert.Equal(t, self.InstanceID, cfg.Self.InstanceID)
}

func TestNewReusesExistingConfig(t *testing.T) {
	root := t.TempDir()
	cfg := Config{
		Self: Self{InstanceID: "fixed-id", DisplayName: "Team Vault"},
		Peers: []Entry{
			{Name: "other", Host: "127.0.0.1", Port: 9999, Protocol: "https"},
		},
	}
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), raw, 0o644))

	r := New(root)
	assert.Equal(t, "fixed-id", r.Self().InstanceID)
	assert.Len(t, r.Peers(), 1)

	statuses := r.Status()
	require.Len(t, statuses, 1)
	assert.Equal(t, "unknown", statuses[0].Status)
}

func TestPollOneMarksOnlineOnSuccessfulHello(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(HelloResponse{
			InstanceID:    "remote-id",
			DisplayName:   "Remote Vault",
			SharedFolders: []string{"knowledge/"},
			Stats:         HelloStats{DocumentCount: 42},
		})
	}))
	defer srv.Close()

	host, portStr := splitHostPort(t, srv.URL)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	root := t.TempDir()
	cfg := Config{
		Self:  Self{InstanceID: "self-id"},
		Peers: []Entry{{Name: "remote", Host: host, Port: port, Protocol: "http"}},
	}
	raw, _ := json.Marshal(cfg)
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), raw, 0o644))

	r := New(root)
	r.pollAll(context.Background())

	statuses := r.Status()
	require.Len(t, statuses, 1)
	assert.Equal(t, "online", statuses[0].Status)
	assert.Equal(t, 42, statuses[0].DocumentCount)
	assert.Equal(t, "Remote Vault", statuses[0].DisplayName)
}

func TestPollOneMarksOfflineOnFailure(t *testing.T) {
	root := t.TempDir()
	cfg := Config{
		Self:  Self{InstanceID: "self-id"},
		Peers: []Entry{{Name: "dead", Host: "127.0.0.1", Port: 1, Protocol: "http"}},
	}
	raw, _ := json.Marshal(cfg)
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), raw, 0o644))

	r := New(root)
	r.pollAll(context.Background())

	statuses := r.Status()
	require.Len(t, statuses, 1)
	assert.Equal(t, "offline", statuses[0].Status)
	assert.Equal(t, 1, statuses[0].ConsecutiveFailures)
}

func TestShouldSkipAppliesBackoffAfterThreshold(t *testing.T) {
	root := t.TempDir()
	r := New(root)
	p := Entry{Name: "x", Host: "h", Port: 1, Protocol: "http"}
	r.status[p.key()] = LiveStatus{
		ConsecutiveFailures: failureThreshold,
		LastSeen:            time.Now().UTC().Format(time.RFC3339),
	}
	assert.True(t, r.shouldSkip(p))

	r.status[p.key()] = LiveStatus{
		ConsecutiveFailures: failureThreshold,
		LastSeen:            time.Now().Add(-200 * time.Second).UTC().Format(time.RFC3339),
	}
	assert.False(t, r.shouldSkip(p))
}

func TestConfigReloadFirstObservationIsBaselineOnly(t *testing.T) {
	root := t.TempDir()
	r := New(root)
	assert.Empty(t, r.Peers())

	// Simulate an edit after the registry already observed the file once.
	r.checkConfigReload()

	cfg := Config{
		Self:  r.Self(),
		Peers: []Entry{{Name: "added", Host: "127.0.0.1", Port: 8080, Protocol: "http"}},
	}
	raw, _ := json.MarshalIndent(cfg, "", "  ")
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), raw, 0o644))
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(root, ConfigFileName), future, future))

	r.checkConfigReload()
	assert.Len(t, r.Peers(), 1)
}

func splitHostPort(t *testing.T, url string) (string, string) {
	t.Helper()
	const prefix = "http://"
	require.True(t, len(url) > len(prefix))
	hostport := url[len(prefix):]
	for i := len(hostport) - 1; i >= 0; i-- {
		if hostport[i] == ':' {
			return hostport[:i], hostport[i+1:]
		}
	}
	t.Fatalf("no port in %q", url)
	return "", ""
}
