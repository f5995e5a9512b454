package sharelinks

import (
	"context"
	"time"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
)

// Repository describes persistence operations for share links.
//
// Redemption is deliberately split in two: RedeemAtomic performs the single
// conditional update that is the only authority on whether a redemption
// succeeds, and GetByToken exists so the service can diagnose a failed
// attempt afterwards. The diagnostic read must never be used to grant access.
type Repository interface {
	// Insert stores a new link row. The unique constraint on token is a
	// backstop only; token entropy makes collisions effectively impossible.
	Insert(ctx context.Context, l *models.ShareLink) error

	// GetByID returns a link by id, or nil if absent.
	GetByID(ctx context.Context, id string) (*models.ShareLink, error)

	// GetByToken returns a link by token, or nil if absent.
	GetByToken(ctx context.Context, token string) (*models.ShareLink, error)

	// RedeemAtomic increments use_count by one iff the link is active, not
	// expired at now, and under its use cap, all in one conditional UPDATE.
	// It returns true when the update claimed a use.
	RedeemAtomic(ctx context.Context, token string, now time.Time) (bool, error)

	// ListAll returns every link, newest first.
	ListAll(ctx context.Context) ([]models.ShareLink, error)

	// ListByScope returns the links covering one scope target, newest first.
	ListByScope(ctx context.Context, scopeType models.ScopeType, scopeId string) ([]models.ShareLink, error)

	// SetActive flips the active flag. Returns false if the link is absent
	// or already in the requested state.
	SetActive(ctx context.Context, id string, active bool) (bool, error)

	// UpdateLabel replaces the label. Returns false if the link is absent.
	UpdateLabel(ctx context.Context, id, label string) (bool, error)

	// UpdateExpiry replaces the expiry (nil clears it). Returns false if absent.
	UpdateExpiry(ctx context.Context, id string, expiresAt *time.Time) (bool, error)

	// UpdateMaxUses replaces the use cap (nil clears it). Returns false if absent.
	UpdateMaxUses(ctx context.Context, id string, maxUses *int64) (bool, error)

	// Delete removes one link. Returns false if absent.
	Delete(ctx context.Context, id string) (bool, error)

	// DeleteByScope removes every link covering one scope target and returns
	// how many were removed. Called when the scoped item or folder is deleted.
	DeleteByScope(ctx context.Context, scopeType models.ScopeType, scopeId string) (int64, error)

	// DeleteExpired removes links whose expiry is at or before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
