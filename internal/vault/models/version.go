package models

import (
	"encoding/json"
	"time"
)

// VersionSnapshot is one immutable, full recording of an item's content.
// Versions for a given (ItemId, ContentType) form a strictly increasing,
// gapless integer sequence starting at 1. Snapshots are only ever appended.
type VersionSnapshot struct {
	// Id is a globally unique, time-ordered identifier for the snapshot row.
	Id string

	// ItemId identifies the owning item.
	ItemId string

	// ContentType is the owning item's kind.
	ContentType ItemType

	// Version is the monotonic version number, starting at 1.
	Version int64

	// ContentHash is the hex-encoded SHA-256 digest of Content.
	ContentHash string

	// Content is the full serialized item state at this version.
	Content json.RawMessage

	// SizeBytes is len(Content), persisted for listing without loading content.
	SizeBytes int64

	// CreatedBy identifies the actor that committed this version.
	CreatedBy string

	// Message is an optional human note.
	Message string

	// CreatedAt is the creation time in UTC.
	CreatedAt time.Time
}

// FieldChange carries the old and new value of a modified top-level field,
// verbatim, without descending into nested structures.
type FieldChange struct {
	From json.RawMessage `json:"from"`
	To   json.RawMessage `json:"to"`
}

// VersionDiff is the derived, non-persisted comparison of two snapshots of
// the same item. Diffs are snapshot-to-snapshot and deliberately not
// composable: diff(1,3) is not required to equal diff(1,2) merged with
// diff(2,3).
type VersionDiff struct {
	ItemId      string   `json:"itemId"`
	ContentType ItemType `json:"contentType"`
	FromVersion int64    `json:"fromVersion"`
	ToVersion   int64    `json:"toVersion"`

	// ChangedFields is the union of additions, deletions and modifications,
	// ordered as encountered in the newer snapshot's content, followed by
	// fields that only exist on the older side.
	ChangedFields []string `json:"changedFields"`

	Additions     map[string]json.RawMessage `json:"additions"`
	Deletions     map[string]json.RawMessage `json:"deletions"`
	Modifications map[string]FieldChange     `json:"modifications"`
}
