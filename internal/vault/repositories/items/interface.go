package items

import (
	"context"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
)

// Repository describes persistence operations for vault items. Lookups report
// absence as (nil, nil), never as an error.
type Repository interface {
	// Insert stores a new item row.
	Insert(ctx context.Context, item *models.VaultItem) error

	// Update rewrites an existing item's name and content. Returns false if
	// the item does not exist.
	Update(ctx context.Context, item *models.VaultItem) (bool, error)

	// GetByID returns an item by id, or nil if absent.
	GetByID(ctx context.Context, id string) (*models.VaultItem, error)

	// GetByIdentity returns the item with the given name and type, or nil.
	// (name, type) is the identity used for import conflict detection.
	GetByIdentity(ctx context.Context, name string, itemType models.ItemType) (*models.VaultItem, error)

	// ListByType returns items of one type, ordered by name.
	ListByType(ctx context.Context, itemType models.ItemType) ([]models.VaultItem, error)

	// ListAll returns every item, ordered by type then name.
	ListAll(ctx context.Context) ([]models.VaultItem, error)

	// ListByIDs returns items whose id is in ids, ordered by type then name.
	ListByIDs(ctx context.Context, ids []string) ([]models.VaultItem, error)

	// Delete removes an item row. Returns false if absent.
	Delete(ctx context.Context, id string) (bool, error)
}
