package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/dbx"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/logging"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/shared"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/items"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/repomanager"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/versions"
)

// ItemService manages vault items. Every committed mutation of an item
// appends a version snapshot in the same transaction, so the history is a
// complete record of the item's states.
type ItemService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	log   logging.Logger
}

// NewItemService returns an ItemService over the given database handle.
func NewItemService(db *sql.DB, repos repomanager.RepositoryManager, log logging.Logger) *ItemService {
	return &ItemService{db: db, repos: repos, log: log}
}

// SaveItemParams describes one item save. Leave Id empty to create.
type SaveItemParams struct {
	Id      string
	Type    models.ItemType
	Name    string
	Content json.RawMessage

	// Message is an optional note recorded on the version snapshot.
	Message string

	// Actor identifies who committed the change. Required.
	Actor string
}

// SaveItem creates or updates an item and appends the matching version
// snapshot atomically.
func (s *ItemService) SaveItem(ctx context.Context, p SaveItemParams) (*models.VaultItem, *models.VersionSnapshot, error) {
	if !p.Type.Valid() {
		return nil, nil, fmt.Errorf("item type %q: %w", p.Type, shared.ErrValidation)
	}
	if p.Name == "" {
		return nil, nil, fmt.Errorf("item name must not be empty: %w", shared.ErrValidation)
	}
	if len(p.Content) == 0 || !json.Valid(p.Content) {
		return nil, nil, fmt.Errorf("item content must be valid JSON: %w", shared.ErrValidation)
	}
	if p.Actor == "" {
		return nil, nil, fmt.Errorf("actor must not be empty: %w", shared.ErrValidation)
	}

	var item *models.VaultItem
	var snap *models.VersionSnapshot
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		itemRepo := s.repos.Items(tx)
		now := time.Now().UTC()

		if p.Id == "" {
			item = &models.VaultItem{
				Id:        uuid.NewString(),
				Type:      p.Type,
				Name:      p.Name,
				Content:   p.Content,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := itemRepo.Insert(ctx, item); err != nil {
				return err
			}
		} else {
			existing, err := itemRepo.GetByID(ctx, p.Id)
			if err != nil {
				return err
			}
			if existing == nil {
				return fmt.Errorf("item %s: %w", p.Id, shared.ErrNotFound)
			}
			existing.Name = p.Name
			existing.Content = p.Content
			if _, err := itemRepo.Update(ctx, existing); err != nil {
				return err
			}
			item = existing
		}

		var err error
		snap, err = appendSnapshot(ctx, s.repos.Versions(tx), item.Id, item.Type, p.Content, p.Actor, p.Message)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return item, snap, nil
}

// GetItem returns an item by id, or nil when absent.
func (s *ItemService) GetItem(ctx context.Context, id string) (*models.VaultItem, error) {
	return s.repos.Items(s.db).GetByID(ctx, id)
}

// ListItems returns items of one type ordered by name, or every item when
// itemType is empty.
func (s *ItemService) ListItems(ctx context.Context, itemType models.ItemType) ([]models.VaultItem, error) {
	repo := s.repos.Items(s.db)
	if itemType == "" {
		return repo.ListAll(ctx)
	}
	if !itemType.Valid() {
		return nil, fmt.Errorf("item type %q: %w", itemType, shared.ErrValidation)
	}
	return repo.ListByType(ctx, itemType)
}

// DeleteItem removes an item, its folder assignments (recomputing the
// affected folders' counts) and any share links scoped to it, atomically.
// Version history is retained: snapshots are append-only and double as the
// audit trail for deleted items. Returns false when the item is absent.
func (s *ItemService) DeleteItem(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		itemRepo := s.repos.Items(tx)

		item, err := itemRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return nil
		}

		folderRepo := s.repos.Folders(tx)
		affected, err := folderRepo.RemoveItemAssignments(ctx, id, item.Type)
		if err != nil {
			return err
		}
		for _, folderId := range affected {
			if err := folderRepo.RecomputeItemCount(ctx, folderId); err != nil {
				return err
			}
		}

		if _, err := s.repos.ShareLinks(tx).DeleteByScope(ctx, models.ScopeTypeItem, id); err != nil {
			return err
		}

		deleted, err = itemRepo.Delete(ctx, id)
		return err
	})
	if err != nil {
		return false, err
	}
	if deleted {
		s.log.Info(ctx, "item deleted", "id", id)
	}
	return deleted, nil
}

// duplicateAsNewIdentity creates an independent item carrying the given
// content under a fresh id and a free name, then records its version 1.
// Backs the fork conflict resolution; bundle imports pick their ids up front
// for reference remapping and share only freeName.
func duplicateAsNewIdentity(ctx context.Context, itemRepo items.Repository, versionRepo versions.Repository, baseName string, itemType models.ItemType, content json.RawMessage, actor, message string) (*models.VaultItem, error) {
	name, err := freeName(ctx, itemRepo, baseName, itemType)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &models.VaultItem{
		Id:        uuid.NewString(),
		Type:      itemType,
		Name:      name,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := itemRepo.Insert(ctx, item); err != nil {
		return nil, err
	}
	if _, err := appendSnapshot(ctx, versionRepo, item.Id, itemType, content, actor, message); err != nil {
		return nil, err
	}
	return item, nil
}

// freeName returns baseName if unused, otherwise "base (copy)", "base (copy
// 2)" and so on. Bounded so a pathological store cannot spin forever.
func freeName(ctx context.Context, itemRepo items.Repository, baseName string, itemType models.ItemType) (string, error) {
	candidate := baseName
	for attempt := 0; attempt < 1000; attempt++ {
		existing, err := itemRepo.GetByIdentity(ctx, candidate, itemType)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
		if attempt == 0 {
			candidate = baseName + " (copy)"
		} else {
			candidate = fmt.Sprintf("%s (copy %d)", baseName, attempt+1)
		}
	}
	return "", fmt.Errorf("no free name for %q: %w", baseName, shared.ErrInternal)
}
