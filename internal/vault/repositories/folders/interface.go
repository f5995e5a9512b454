package folders

import (
	"context"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
)

// Repository describes persistence operations for folders and folder-item
// assignments. Implementations are backed by a local SQLite database and
// accept either a plain connection or a transaction handle (dbx.DBTX).
//
// Lookup methods report absence as (nil, nil) or false, never as an error:
// callers routinely probe for existence.
type Repository interface {
	// Insert stores a new folder row.
	Insert(ctx context.Context, f *models.VaultFolder) error

	// GetByID returns a folder by id, or nil if it does not exist.
	GetByID(ctx context.Context, id string) (*models.VaultFolder, error)

	// UpdateParent repoints a folder's parent. Returns false if the folder
	// does not exist. Cycle validation happens in the service layer before
	// this is called, inside the same transaction.
	UpdateParent(ctx context.Context, id string, parentId *string) (bool, error)

	// ReparentChildren moves every direct child of oldParentId under
	// newParentId and returns the number of folders moved.
	ReparentChildren(ctx context.Context, oldParentId string, newParentId *string) (int64, error)

	// Delete removes the folder row itself. Returns false if absent.
	Delete(ctx context.Context, id string) (bool, error)

	// Count returns the total number of folders. Used to bound ancestor walks.
	Count(ctx context.Context) (int64, error)

	// ListRoot returns folders without a parent, ordered by name.
	ListRoot(ctx context.Context) ([]models.VaultFolder, error)

	// ListChildren returns the direct children of a folder, ordered by name.
	ListChildren(ctx context.Context, parentId string) ([]models.VaultFolder, error)

	// ListAll returns every folder, ordered by name.
	ListAll(ctx context.Context) ([]models.VaultFolder, error)

	// ListShared returns folders with the shared flag set, ordered by name.
	ListShared(ctx context.Context) ([]models.VaultFolder, error)

	// AssignItem upserts a folder-item association. Re-assigning an existing
	// (folder, item, type) triple refreshes AssignedAt.
	AssignItem(ctx context.Context, fi *models.FolderItem) error

	// UnassignItem removes one association. Returns false if it was absent.
	UnassignItem(ctx context.Context, folderId, itemId string, itemType models.ItemType) (bool, error)

	// IsItemInFolder reports whether the association exists.
	IsItemInFolder(ctx context.Context, folderId, itemId string, itemType models.ItemType) (bool, error)

	// ListFolderItems returns a folder's assignments, newest first.
	ListFolderItems(ctx context.Context, folderId string) ([]models.FolderItem, error)

	// ListItemFolders returns the folders an item is assigned to, ordered by name.
	ListItemFolders(ctx context.Context, itemId string, itemType models.ItemType) ([]models.VaultFolder, error)

	// RemoveFolderAssignments drops all assignments for a folder.
	RemoveFolderAssignments(ctx context.Context, folderId string) (int64, error)

	// RemoveItemAssignments drops all assignments for an item across folders,
	// returning the ids of the folders that were affected.
	RemoveItemAssignments(ctx context.Context, itemId string, itemType models.ItemType) ([]string, error)

	// RecomputeItemCount refreshes the cached item_count from the assignment
	// rows. A full recount, not a counter adjustment, so it cannot drift.
	RecomputeItemCount(ctx context.Context, folderId string) error
}
