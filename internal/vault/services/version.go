package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sethvargo/go-retry"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/dbx"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/logging"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/shared"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/repomanager"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/versions"
)

// VersionService manages the append-only version history of items.
type VersionService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	log   logging.Logger
}

// NewVersionService returns a VersionService over the given database handle.
func NewVersionService(db *sql.DB, repos repomanager.RepositoryManager, log logging.Logger) *VersionService {
	return &VersionService{db: db, repos: repos, log: log}
}

// CreateVersionParams carries the metadata of a new snapshot.
type CreateVersionParams struct {
	// Message is an optional human note.
	Message string

	// CreatedBy identifies the committing actor. Required.
	CreatedBy string
}

// CreateVersion appends a snapshot with version = current max + 1. Two
// concurrent creations for the same item cannot claim the same number: the
// loser either waits for the write lock at BEGIN (immediate transactions),
// trips the unique constraint on (item, contentType, version), or gets a
// busy error, and in the latter two cases re-reads the max and retries.
func (s *VersionService) CreateVersion(ctx context.Context, itemId string, contentType models.ItemType, content json.RawMessage, p CreateVersionParams) (*models.VersionSnapshot, error) {
	if err := validateSnapshotInput(itemId, contentType, content); err != nil {
		return nil, err
	}
	if p.CreatedBy == "" {
		return nil, fmt.Errorf("createdBy must not be empty: %w", shared.ErrValidation)
	}

	var snap *models.VersionSnapshot
	backoff := retry.WithMaxRetries(3, retry.NewConstant(2*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			var err error
			snap, err = appendSnapshot(ctx, s.repos.Versions(tx), itemId, contentType, content, p.CreatedBy, p.Message)
			return err
		})
		if errors.Is(err, shared.ErrVersionConflict) || dbx.IsBusy(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// appendSnapshot allocates max+1 and inserts, all against the same handle so
// callers can run it inside a wider transaction.
func appendSnapshot(ctx context.Context, repo versions.Repository, itemId string, contentType models.ItemType, content json.RawMessage, createdBy, message string) (*models.VersionSnapshot, error) {
	max, err := repo.MaxVersion(ctx, itemId, contentType)
	if err != nil {
		return nil, err
	}
	snap := newSnapshot(itemId, contentType, max+1, content, createdBy, message)
	if err := repo.Insert(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func newSnapshot(itemId string, contentType models.ItemType, version int64, content json.RawMessage, createdBy, message string) *models.VersionSnapshot {
	sum := sha256.Sum256(content)
	return &models.VersionSnapshot{
		Id:          ulid.Make().String(),
		ItemId:      itemId,
		ContentType: contentType,
		Version:     version,
		ContentHash: hex.EncodeToString(sum[:]),
		Content:     content,
		SizeBytes:   int64(len(content)),
		CreatedBy:   createdBy,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
}

func validateSnapshotInput(itemId string, contentType models.ItemType, content json.RawMessage) error {
	if itemId == "" {
		return fmt.Errorf("item id must not be empty: %w", shared.ErrValidation)
	}
	if !contentType.Valid() {
		return fmt.Errorf("content type %q: %w", contentType, shared.ErrValidation)
	}
	if len(content) == 0 || !json.Valid(content) {
		return fmt.Errorf("content must be valid JSON: %w", shared.ErrValidation)
	}
	return nil
}

// ListVersions returns an item's snapshots, newest first.
func (s *VersionService) ListVersions(ctx context.Context, itemId string, contentType models.ItemType) ([]models.VersionSnapshot, error) {
	return s.repos.Versions(s.db).List(ctx, itemId, contentType)
}

// GetVersion returns one snapshot, or nil when that version does not exist.
func (s *VersionService) GetVersion(ctx context.Context, itemId string, contentType models.ItemType, version int64) (*models.VersionSnapshot, error) {
	return s.repos.Versions(s.db).Get(ctx, itemId, contentType, version)
}

// Diff compares two snapshots of the same item field by field at the top
// level of their content. fromVersion must be strictly lower than toVersion.
//
// Diffs are snapshot-to-snapshot: Diff(1,3) is computed from those two
// snapshots alone and need not equal Diff(1,2) combined with Diff(2,3).
func (s *VersionService) Diff(ctx context.Context, itemId string, contentType models.ItemType, fromVersion, toVersion int64) (*models.VersionDiff, error) {
	if fromVersion >= toVersion {
		return nil, fmt.Errorf("fromVersion %d must be lower than toVersion %d: %w", fromVersion, toVersion, shared.ErrValidation)
	}

	repo := s.repos.Versions(s.db)
	from, err := repo.Get(ctx, itemId, contentType, fromVersion)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, fmt.Errorf("version %d of item %s: %w", fromVersion, itemId, shared.ErrNotFound)
	}
	to, err := repo.Get(ctx, itemId, contentType, toVersion)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, fmt.Errorf("version %d of item %s: %w", toVersion, itemId, shared.ErrNotFound)
	}

	diff, err := computeDiff(from.Content, to.Content)
	if err != nil {
		return nil, err
	}
	diff.ItemId = itemId
	diff.ContentType = contentType
	diff.FromVersion = fromVersion
	diff.ToVersion = toVersion
	return diff, nil
}

// Rollback makes targetVersion's content current by appending it as a new
// snapshot (current max + 1). History is never rewritten: every prior
// version stays retrievable. If the item row still exists its content is
// updated to match, in the same transaction.
func (s *VersionService) Rollback(ctx context.Context, itemId string, contentType models.ItemType, targetVersion int64, actor string) (*models.VersionSnapshot, error) {
	if actor == "" {
		return nil, fmt.Errorf("actor must not be empty: %w", shared.ErrValidation)
	}

	var snap *models.VersionSnapshot
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Versions(tx)

		target, err := repo.Get(ctx, itemId, contentType, targetVersion)
		if err != nil {
			return err
		}
		if target == nil {
			return fmt.Errorf("version %d of item %s: %w", targetVersion, itemId, shared.ErrNotFound)
		}

		message := fmt.Sprintf("rollback to version %d", targetVersion)
		snap, err = appendSnapshot(ctx, repo, itemId, contentType, target.Content, actor, message)
		if err != nil {
			return err
		}

		itemRepo := s.repos.Items(tx)
		item, err := itemRepo.GetByID(ctx, itemId)
		if err != nil {
			return err
		}
		if item != nil {
			item.Content = target.Content
			if _, err := itemRepo.Update(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "rolled back item", "item", itemId, "target", targetVersion, "new_version", snap.Version)
	return snap, nil
}
