package peer

import "strconv"

// ConfigFileName is the on-disk peer registry file, created on first run
// inside the vault root.
const ConfigFileName = ".org-viewer-peers.json"

const (
	pollInterval     = 30  // seconds
	backoffInterval  = 120 // seconds
	failureThreshold = 3
	helloTimeoutSecs = 3
)

// Config is the on-disk peer registry.
type Config struct {
	Self  Self    `json:"self"`
	Peers []Entry `json:"peers"`
}

// Self describes this instance's identity and what it shares.
type Self struct {
	InstanceID    string   `json:"instanceId"`
	DisplayName   string   `json:"displayName"`
	SharedFolders []string `json:"sharedFolders"`
	SharedTags    []string `json:"sharedTags"`
}

// Entry is one configured remote peer.
type Entry struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
}

func (e Entry) key() string {
	return e.Host + ":" + strconv.Itoa(e.Port)
}

// LiveStatus is a peer's most recently observed reachability and identity.
type LiveStatus struct {
	Name                string   `json:"name"`
	Host                string   `json:"host"`
	Port                int      `json:"port"`
	Protocol            string   `json:"protocol"`
	Status              string   `json:"status"` // "online" | "offline" | "unknown"
	InstanceID          string   `json:"instanceId,omitempty"`
	DisplayName         string   `json:"displayName,omitempty"`
	SharedFolders       []string `json:"sharedFolders,omitempty"`
	SharedTags          []string `json:"sharedTags,omitempty"`
	DocumentCount       int      `json:"documentCount,omitempty"`
	LastSeen            string   `json:"lastSeen,omitempty"`
	LatencyMs           int64    `json:"latencyMs,omitempty"`
	ConsecutiveFailures int      `json:"consecutiveFailures"`
}

// HelloResponse is what a peer's /api/federation/hello endpoint returns.
type HelloResponse struct {
	InstanceID    string     `json:"instanceId"`
	DisplayName   string     `json:"displayName"`
	SharedFolders []string   `json:"sharedFolders"`
	SharedTags    []string   `json:"sharedTags"`
	Stats         HelloStats `json:"stats"`
}

// HelloStats is the nested document-count summary in a HelloResponse.
type HelloStats struct {
	DocumentCount int `json:"documentCount"`
}
