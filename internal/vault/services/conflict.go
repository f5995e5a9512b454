package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/dbx"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/logging"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/shared"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/repomanager"
)

// ConflictService detects sync divergences and applies their resolutions.
// Resolution is pure with respect to UI state: resolve(conflict, choice)
// applies one effect through the stores and discards the conflict.
type ConflictService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	log   logging.Logger
}

// NewConflictService returns a ConflictService over the given database handle.
func NewConflictService(db *sql.DB, repos repomanager.RepositoryManager, log logging.Logger) *ConflictService {
	return &ConflictService{db: db, repos: repos, log: log}
}

// RemoteHead summarizes one item's state on a peer, as exchanged during a
// sync pass.
type RemoteHead struct {
	ItemId      string
	ContentType models.ItemType

	// Version and ContentHash describe the peer's newest snapshot.
	Version     int64
	ContentHash string

	// AncestorVersion is the last version both sides agree on, 0 if none.
	AncestorVersion int64
}

// Detect compares remote heads against the local history and surfaces a
// conflict for every item that moved on both sides since the common ancestor
// with diverging content. Items unknown locally are not conflicts; they are
// plain imports.
func (s *ConflictService) Detect(ctx context.Context, peer string, remote []RemoteHead) ([]models.SyncConflict, error) {
	repo := s.repos.Versions(s.db)
	now := time.Now().UTC()

	var conflicts []models.SyncConflict
	for _, head := range remote {
		local, err := repo.Latest(ctx, head.ItemId, head.ContentType)
		if err != nil {
			return nil, err
		}
		if local == nil {
			continue
		}

		localMoved := local.Version > head.AncestorVersion
		remoteMoved := head.Version > head.AncestorVersion
		if localMoved && remoteMoved && local.ContentHash != head.ContentHash {
			conflicts = append(conflicts, models.SyncConflict{
				ItemId:          head.ItemId,
				ContentType:     head.ContentType,
				LocalVersion:    local.Version,
				LocalHash:       local.ContentHash,
				RemoteVersion:   head.Version,
				RemoteHash:      head.ContentHash,
				AncestorVersion: head.AncestorVersion,
				Peer:            peer,
				DetectedAt:      now,
			})
		}
	}
	return conflicts, nil
}

// Resolve applies one terminal resolution:
//
//   - local: the remote version is discarded, nothing is written.
//   - remote: the remote content is appended as a new local version and
//     becomes the item's current content. No existing snapshot is touched.
//   - fork: the local chain stays untouched and the remote content becomes a
//     brand-new independent item.
//
// remoteContent carries the peer's full content for the item; it is required
// for the remote and fork choices.
func (s *ConflictService) Resolve(ctx context.Context, conflict models.SyncConflict, choice models.Resolution, remoteContent json.RawMessage, actor string) error {
	if !choice.Valid() {
		return fmt.Errorf("resolution %q: %w", choice, shared.ErrValidation)
	}
	if actor == "" {
		return fmt.Errorf("actor must not be empty: %w", shared.ErrValidation)
	}

	if choice == models.ResolutionLocal {
		s.log.Info(ctx, "conflict resolved", "item", conflict.ItemId, "choice", choice, "peer", conflict.Peer)
		return nil
	}

	if len(remoteContent) == 0 || !json.Valid(remoteContent) {
		return fmt.Errorf("remote content must be valid JSON: %w", shared.ErrValidation)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		itemRepo := s.repos.Items(tx)
		versionRepo := s.repos.Versions(tx)

		item, err := itemRepo.GetByID(ctx, conflict.ItemId)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %s: %w", conflict.ItemId, shared.ErrNotFound)
		}

		message := fmt.Sprintf("sync with %s: accepted remote version %d", conflict.Peer, conflict.RemoteVersion)
		switch choice {
		case models.ResolutionRemote:
			if _, err := appendSnapshot(ctx, versionRepo, item.Id, item.Type, remoteContent, actor, message); err != nil {
				return err
			}
			item.Content = remoteContent
			_, err = itemRepo.Update(ctx, item)
			return err

		case models.ResolutionFork:
			message = fmt.Sprintf("forked from %s during sync with %s", item.Name, conflict.Peer)
			_, err := duplicateAsNewIdentity(ctx, itemRepo, versionRepo, item.Name, item.Type, remoteContent, actor, message)
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "conflict resolved", "item", conflict.ItemId, "choice", choice, "peer", conflict.Peer)
	return nil
}
