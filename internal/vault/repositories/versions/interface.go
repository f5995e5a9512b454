package versions

import (
	"context"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
)

// Repository describes persistence operations for version snapshots. The
// table is append-only: rows are inserted and read, never updated.
type Repository interface {
	// Insert stores a snapshot row. If another writer already claimed the
	// same (item, contentType, version), the unique constraint trips and
	// Insert returns an error wrapping shared.ErrVersionConflict so the
	// caller can re-read the max and retry.
	Insert(ctx context.Context, v *models.VersionSnapshot) error

	// MaxVersion returns the highest committed version for the item, 0 when
	// no snapshot exists yet.
	MaxVersion(ctx context.Context, itemId string, contentType models.ItemType) (int64, error)

	// List returns all snapshots for the item, newest first.
	List(ctx context.Context, itemId string, contentType models.ItemType) ([]models.VersionSnapshot, error)

	// Get returns one snapshot, or nil if that version does not exist.
	Get(ctx context.Context, itemId string, contentType models.ItemType, version int64) (*models.VersionSnapshot, error)

	// Latest returns the newest snapshot, or nil if the item has none.
	Latest(ctx context.Context, itemId string, contentType models.ItemType) (*models.VersionSnapshot, error)
}
