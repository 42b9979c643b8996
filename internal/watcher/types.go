package watcher

// ChangeKind distinguishes an update (create/modify) from a removal, the
// only two outcomes a subscriber needs to react to.
type ChangeKind string

const (
	ChangeUpdate ChangeKind = "update"
	ChangeRemove ChangeKind = "remove"
)

// Change is one coalesced filesystem event, handed to subscribers after the
// index has already been refreshed or had the path removed.
type Change struct {
	Path      string     `json:"path"`
	Kind      ChangeKind `json:"kind"`
	TimeMilli int64      `json:"time_milli"`
}

// Subscriber receives change notifications once the index mutation behind
// them has already completed. Implemented by the serve command's
// watcherToSync adapter, which forwards updates to the federation sync
// service.
type Subscriber interface {
	OnVaultChange(Change)
}
