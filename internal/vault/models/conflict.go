package models

import "time"

// Resolution is a terminal choice for a sync conflict.
type Resolution string

const (
	// ResolutionLocal discards the remote version; nothing is written.
	ResolutionLocal Resolution = "local"

	// ResolutionRemote makes the remote version authoritative by appending
	// it as a new local version.
	ResolutionRemote Resolution = "remote"

	// ResolutionFork keeps both: the local chain stays untouched and the
	// remote content is imported as a brand-new item.
	ResolutionFork Resolution = "fork"
)

// Valid reports whether r is a known resolution.
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionLocal, ResolutionRemote, ResolutionFork:
		return true
	}
	return false
}

// SyncConflict is an ephemeral record surfaced when a sync pass finds that an
// item diverged on both sides since a common ancestor version. It is resolved
// once and then discarded; it is never persisted.
type SyncConflict struct {
	ItemId      string
	ContentType ItemType

	// LocalVersion / LocalHash describe the local head.
	LocalVersion int64
	LocalHash    string

	// RemoteVersion / RemoteHash describe the remote head.
	RemoteVersion int64
	RemoteHash    string

	// AncestorVersion is the last version both sides agree on, 0 if none.
	AncestorVersion int64

	// Peer identifies the remote side.
	Peer string

	DetectedAt time.Time
}
