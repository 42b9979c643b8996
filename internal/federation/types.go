// Package federation implements the cross-peer document sync service: the
// federation frontmatter block, checksum-based drift detection, and the
// adopt/send/receive/resolve operations.
package federation

const syncPollInterval = 60 // seconds, drift-check cadence

// Timeout family for outbound federation HTTP calls. Peer hello
// checks live in internal/peer with their own 3s timeout.
const (
	driftTimeoutSecs = 5
	fetchTimeoutSecs = 10
	sendTimeoutSecs  = 5
)

// Meta is the federation frontmatter block recorded on every adopted
// document.
type Meta struct {
	OriginPeer     string `yaml:"origin-peer"`
	OriginName     string `yaml:"origin-name"`
	OriginHost     string `yaml:"origin-host"`
	OriginPath     string `yaml:"origin-path"`
	AdoptedAt      string `yaml:"adopted-at"`
	OriginChecksum string `yaml:"origin-checksum"`
	LocalChecksum  string `yaml:"local-checksum"`
	SyncStatus     string `yaml:"sync-status"`
	LastSyncCheck  string `yaml:"last-sync-check"`
}

// Sync status values.
const (
	StatusSynced         = "synced"
	StatusLocalModified  = "local-modified"
	StatusOriginModified = "origin-modified"
	StatusConflict       = "conflict"
	StatusRejected       = "rejected"
)

// Resolution actions accepted by Resolve.
const (
	ActionAcceptOrigin = "accept-origin"
	ActionKeepLocal    = "keep-local"
	ActionMerge        = "merge"
	ActionReject       = "reject"
)

// SharedDocument is one locally-adopted document surfaced for listing.
type SharedDocument struct {
	LocalPath string   `json:"localPath"`
	Title     string   `json:"title"`
	Type      string   `json:"type"`
	Tags      []string `json:"tags"`
	Meta      Meta     `json:"federation"`
}

// ConflictDiff is the three-way comparison surfaced to a caller resolving a
// conflict. BaseContent is always empty: neither this implementation nor
// the system it was modeled on retains the pre-adoption snapshot needed for
// a true three-way merge base.
type ConflictDiff struct {
	LocalContent   string `json:"localContent"`
	OriginContent  string `json:"originContent"`
	BaseContent    string `json:"baseContent"`
	LocalChecksum  string `json:"localChecksum"`
	OriginChecksum string `json:"originChecksum"`
}

// StatusEvent is emitted whenever a document's sync-status transitions.
type StatusEvent struct {
	Type      string `json:"type"`
	Path      string `json:"path"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
	Peer      string `json:"peer,omitempty"`
	TimeMilli int64  `json:"timestamp"`
}

// StatusListener is notified on every sync-status transition.
type StatusListener interface {
	OnSyncStatusChange(StatusEvent)
}

// SenderIdentity identifies the instance pushing a document via Send.
type SenderIdentity struct {
	InstanceID  string `json:"instanceId"`
	DisplayName string `json:"displayName"`
	Host        string `json:"host"`
}

// SendDocument is the document payload carried by a send/receive request.
type SendDocument struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	SourcePath string   `json:"sourcePath"`
}

// ReceivePayload is the full body POSTed to a peer's
// /api/federation/receive endpoint.
type ReceivePayload struct {
	From     SenderIdentity `json:"from"`
	Document SendDocument   `json:"document"`
	Message  string         `json:"message,omitempty"`
}
