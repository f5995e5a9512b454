// Package services implements the vault engine's operations over the
// repositories: folder tree management, version history, share links,
// conflict resolution and bundle transfer. Services own validation and
// transaction boundaries; repositories own SQL.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/dbx"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/logging"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/shared"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/folders"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/repomanager"
)

// FolderService manages the folder tree and folder-item assignments.
type FolderService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	log   logging.Logger
}

// NewFolderService returns a FolderService over the given database handle.
func NewFolderService(db *sql.DB, repos repomanager.RepositoryManager, log logging.Logger) *FolderService {
	return &FolderService{db: db, repos: repos, log: log}
}

// CreateFolderOptions carries the optional attributes of a new folder.
type CreateFolderOptions struct {
	Description *string
	ParentId    *string
	IsShared    bool
}

// CreateFolder creates a folder. The name must be non-empty; a given parent
// must exist.
func (s *FolderService) CreateFolder(ctx context.Context, name string, opts CreateFolderOptions) (*models.VaultFolder, error) {
	if name == "" {
		return nil, fmt.Errorf("folder name must not be empty: %w", shared.ErrValidation)
	}

	now := time.Now().UTC()
	f := &models.VaultFolder{
		Id:          uuid.NewString(),
		Name:        name,
		Description: opts.Description,
		ParentId:    opts.ParentId,
		IsShared:    opts.IsShared,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Folders(tx)
		if opts.ParentId != nil {
			parent, err := repo.GetByID(ctx, *opts.ParentId)
			if err != nil {
				return err
			}
			if parent == nil {
				return fmt.Errorf("parent folder %s: %w", *opts.ParentId, shared.ErrNotFound)
			}
		}
		return repo.Insert(ctx, f)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetFolder returns a folder by id, or nil when it does not exist.
func (s *FolderService) GetFolder(ctx context.Context, id string) (*models.VaultFolder, error) {
	return s.repos.Folders(s.db).GetByID(ctx, id)
}

// MoveFolder repoints a folder under a new parent (nil moves it to the root).
// Returns false when the folder does not exist. A move that would make the
// folder its own ancestor is rejected with ErrCircularReference before any
// write; the cycle check runs inside the same transaction as the update.
func (s *FolderService) MoveFolder(ctx context.Context, id string, newParentId *string) (bool, error) {
	var moved bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Folders(tx)

		f, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if f == nil {
			return nil
		}

		if newParentId != nil {
			parent, err := repo.GetByID(ctx, *newParentId)
			if err != nil {
				return err
			}
			if parent == nil {
				return fmt.Errorf("new parent folder %s: %w", *newParentId, shared.ErrNotFound)
			}
			cycle, err := wouldCreateCycle(ctx, repo, id, *newParentId)
			if err != nil {
				return err
			}
			if cycle {
				return fmt.Errorf("moving folder %s under %s: %w", id, *newParentId, shared.ErrCircularReference)
			}
		}

		moved, err = repo.UpdateParent(ctx, id, newParentId)
		return err
	})
	if err != nil {
		return false, err
	}
	return moved, nil
}

// wouldCreateCycle walks the ancestor chain starting at candidateParent and
// reports whether id appears in it. The walk is bounded by the total folder
// count so a corrupted chain cannot loop forever.
func wouldCreateCycle(ctx context.Context, repo folders.Repository, id, candidateParent string) (bool, error) {
	limit, err := repo.Count(ctx)
	if err != nil {
		return false, err
	}

	cur := &candidateParent
	for steps := int64(0); cur != nil && steps <= limit; steps++ {
		if *cur == id {
			return true, nil
		}
		f, err := repo.GetByID(ctx, *cur)
		if err != nil {
			return false, err
		}
		if f == nil {
			return false, nil
		}
		cur = f.ParentId
	}
	return false, nil
}

// DeleteFolder removes a folder: its direct children are reparented to the
// folder's own former parent, its item assignments are dropped, any share
// links scoped to it are deleted, and finally the folder row goes. All steps
// commit atomically or not at all. Returns false when the folder is absent.
func (s *FolderService) DeleteFolder(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Folders(tx)

		f, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if f == nil {
			return nil
		}

		if _, err := repo.ReparentChildren(ctx, id, f.ParentId); err != nil {
			return err
		}
		if _, err := repo.RemoveFolderAssignments(ctx, id); err != nil {
			return err
		}
		if _, err := s.repos.ShareLinks(tx).DeleteByScope(ctx, models.ScopeTypeFolder, id); err != nil {
			return err
		}
		deleted, err = repo.Delete(ctx, id)
		return err
	})
	if err != nil {
		return false, err
	}
	if deleted {
		s.log.Info(ctx, "folder deleted", "id", id)
	}
	return deleted, nil
}

// AddItemToFolder assigns an item to a folder. Re-adding an existing
// assignment refreshes its timestamp. The folder's cached item count is
// recomputed in the same transaction.
func (s *FolderService) AddItemToFolder(ctx context.Context, folderId, itemId string, itemType models.ItemType) error {
	if !itemType.Valid() {
		return fmt.Errorf("item type %q: %w", itemType, shared.ErrValidation)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Folders(tx)

		f, err := repo.GetByID(ctx, folderId)
		if err != nil {
			return err
		}
		if f == nil {
			return fmt.Errorf("folder %s: %w", folderId, shared.ErrNotFound)
		}

		fi := &models.FolderItem{FolderId: folderId, ItemId: itemId, ItemType: itemType, AssignedAt: time.Now().UTC()}
		if err := repo.AssignItem(ctx, fi); err != nil {
			return err
		}
		return repo.RecomputeItemCount(ctx, folderId)
	})
}

// RemoveItemFromFolder drops one assignment. Returns false when it was absent.
func (s *FolderService) RemoveItemFromFolder(ctx context.Context, folderId, itemId string, itemType models.ItemType) (bool, error) {
	var removed bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Folders(tx)
		var err error
		removed, err = repo.UnassignItem(ctx, folderId, itemId, itemType)
		if err != nil || !removed {
			return err
		}
		return repo.RecomputeItemCount(ctx, folderId)
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// MoveItem reassigns an item from one folder to another in a single
// transaction. Returns false when the item was not assigned to fromFolder.
func (s *FolderService) MoveItem(ctx context.Context, itemId string, itemType models.ItemType, fromFolderId, toFolderId string) (bool, error) {
	var moved bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Folders(tx)

		removed, err := repo.UnassignItem(ctx, fromFolderId, itemId, itemType)
		if err != nil {
			return err
		}
		if !removed {
			return nil
		}

		to, err := repo.GetByID(ctx, toFolderId)
		if err != nil {
			return err
		}
		if to == nil {
			return fmt.Errorf("target folder %s: %w", toFolderId, shared.ErrNotFound)
		}

		fi := &models.FolderItem{FolderId: toFolderId, ItemId: itemId, ItemType: itemType, AssignedAt: time.Now().UTC()}
		if err := repo.AssignItem(ctx, fi); err != nil {
			return err
		}
		if err := repo.RecomputeItemCount(ctx, fromFolderId); err != nil {
			return err
		}
		if err := repo.RecomputeItemCount(ctx, toFolderId); err != nil {
			return err
		}
		moved = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return moved, nil
}

// GetFolderItems returns a folder's assignments, newest first.
func (s *FolderService) GetFolderItems(ctx context.Context, folderId string) ([]models.FolderItem, error) {
	return s.repos.Folders(s.db).ListFolderItems(ctx, folderId)
}

// GetItemFolders returns the folders an item is assigned to, ordered by name.
func (s *FolderService) GetItemFolders(ctx context.Context, itemId string, itemType models.ItemType) ([]models.VaultFolder, error) {
	return s.repos.Folders(s.db).ListItemFolders(ctx, itemId, itemType)
}

// IsItemInFolder reports whether an assignment exists.
func (s *FolderService) IsItemInFolder(ctx context.Context, folderId, itemId string, itemType models.ItemType) (bool, error) {
	return s.repos.Folders(s.db).IsItemInFolder(ctx, folderId, itemId, itemType)
}

// GetRootFolders returns parentless folders, ordered by name.
func (s *FolderService) GetRootFolders(ctx context.Context) ([]models.VaultFolder, error) {
	return s.repos.Folders(s.db).ListRoot(ctx)
}

// GetChildFolders returns a folder's direct children, ordered by name.
func (s *FolderService) GetChildFolders(ctx context.Context, parentId string) ([]models.VaultFolder, error) {
	return s.repos.Folders(s.db).ListChildren(ctx, parentId)
}

// GetAllFolders returns every folder, ordered by name.
func (s *FolderService) GetAllFolders(ctx context.Context) ([]models.VaultFolder, error) {
	return s.repos.Folders(s.db).ListAll(ctx)
}

// GetSharedFolders returns folders flagged as shared, ordered by name.
func (s *FolderService) GetSharedFolders(ctx context.Context) ([]models.VaultFolder, error) {
	return s.repos.Folders(s.db).ListShared(ctx)
}
