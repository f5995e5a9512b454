package models

import "time"

// VaultFolder is a node in the folder tree. Folders act as tags: an item may
// be assigned to any number of folders at once.
//
// The parent-pointer graph over all folders is acyclic; move operations are
// validated against that invariant before committing.
type VaultFolder struct {
	// Id is a globally unique identifier for the folder.
	Id string

	// Name is the user-visible folder name. Never empty.
	Name string

	// Description is an optional free-form note.
	Description *string

	// ParentId points at the parent folder, nil for root-level folders.
	ParentId *string

	// ItemCount is the number of items currently assigned to this folder.
	// Recomputed from the assignment rows on every membership mutation.
	ItemCount int

	// IsShared marks folders exposed through share links.
	IsShared bool

	// CreatedAt is the creation time in UTC.
	CreatedAt time.Time

	// UpdatedAt is the last modification time in UTC.
	UpdatedAt time.Time
}

// FolderItem is a pure association between a folder and an item. Its identity
// is the (FolderId, ItemId, ItemType) triple; re-assigning the same triple
// refreshes AssignedAt instead of duplicating the row.
type FolderItem struct {
	FolderId   string
	ItemId     string
	ItemType   ItemType
	AssignedAt time.Time
}
