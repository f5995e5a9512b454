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
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/repomanager"
)

// shareTokenBytes is the entropy behind each token: 24 random bytes encoded
// as 32 unpadded base64url characters. Collisions are effectively impossible;
// the unique constraint on the token column is only a backstop.
const shareTokenBytes = 24

// ShareLinkService issues and redeems scoped capability tokens.
type ShareLinkService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	log   logging.Logger
}

// NewShareLinkService returns a ShareLinkService over the given database handle.
func NewShareLinkService(db *sql.DB, repos repomanager.RepositoryManager, log logging.Logger) *ShareLinkService {
	return &ShareLinkService{db: db, repos: repos, log: log}
}

// CreateLinkParams describes a new share link.
type CreateLinkParams struct {
	ScopeType     models.ScopeType
	ScopeId       *string
	ScopeCategory *models.ItemType
	Level         models.AccessLevel
	ExpiresAt     *time.Time
	MaxUses       *int64
	Label         string
}

// Create validates the scope shape and issues a link with a fresh token.
func (s *ShareLinkService) Create(ctx context.Context, p CreateLinkParams) (*models.ShareLink, error) {
	if err := validateLinkParams(p); err != nil {
		return nil, err
	}

	token, err := shared.MakeURLSafeToken(shareTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	link := &models.ShareLink{
		Id:            uuid.NewString(),
		Token:         token,
		ScopeType:     p.ScopeType,
		ScopeId:       p.ScopeId,
		ScopeCategory: p.ScopeCategory,
		Level:         p.Level,
		ExpiresAt:     p.ExpiresAt,
		MaxUses:       p.MaxUses,
		Label:         p.Label,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repos.ShareLinks(s.db).Insert(ctx, link); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "share link created", "id", link.Id, "scope", link.ScopeType, "level", link.Level)
	return link, nil
}

func validateLinkParams(p CreateLinkParams) error {
	if !p.ScopeType.Valid() {
		return fmt.Errorf("scope type %q: %w", p.ScopeType, shared.ErrValidation)
	}
	if !p.Level.Valid() {
		return fmt.Errorf("access level %q: %w", p.Level, shared.ErrValidation)
	}
	switch p.ScopeType {
	case models.ScopeTypeItem, models.ScopeTypeFolder:
		if p.ScopeId == nil || *p.ScopeId == "" {
			return fmt.Errorf("scope id is required for %s links: %w", p.ScopeType, shared.ErrValidation)
		}
		if p.ScopeCategory != nil {
			return fmt.Errorf("scope category is only valid for category links: %w", shared.ErrValidation)
		}
	case models.ScopeTypeCategory:
		if p.ScopeCategory == nil || !p.ScopeCategory.Valid() {
			return fmt.Errorf("scope category is required for category links: %w", shared.ErrValidation)
		}
		if p.ScopeId != nil {
			return fmt.Errorf("scope id is only valid for item and folder links: %w", shared.ErrValidation)
		}
	case models.ScopeTypeAll:
		if p.ScopeId != nil || p.ScopeCategory != nil {
			return fmt.Errorf("vault-wide links take no scope target: %w", shared.ErrValidation)
		}
	}
	if p.MaxUses != nil && *p.MaxUses <= 0 {
		return fmt.Errorf("max uses must be positive: %w", shared.ErrValidation)
	}
	return nil
}

// Redeem consumes one use of a token. The atomic conditional update is the
// only authority on success; when it claims no row, a second read merely
// classifies the failure for error reporting and is never allowed to grant
// access. This ordering is what keeps two simultaneous redemptions of a
// single-use link from both succeeding.
func (s *ShareLinkService) Redeem(ctx context.Context, token string) (*models.ShareLink, error) {
	now := time.Now().UTC()
	repo := s.repos.ShareLinks(s.db)

	claimed, err := repo.RedeemAtomic(ctx, token, now)
	if err != nil {
		return nil, err
	}

	link, err := repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if claimed {
		if link == nil {
			// claimed a use, then the row vanished before the read
			s.log.Error(ctx, "share link disappeared after redemption", "token_prefix", tokenPrefix(token))
			return nil, shared.ErrLinkInvalid
		}
		return link, nil
	}

	switch {
	case link == nil:
		return nil, shared.ErrLinkNotFound
	case !link.IsActive:
		return nil, shared.ErrLinkInactive
	case link.ExpiresAt != nil && !now.Before(*link.ExpiresAt):
		return nil, shared.ErrLinkExpired
	case link.MaxUses != nil && link.UseCount >= *link.MaxUses:
		return nil, shared.ErrLinkMaxUses
	default:
		// the conditional update refused but every condition now reads as
		// satisfied; treat as an internal-consistency signal, not user error
		s.log.Error(ctx, "share link redemption failed without diagnosis", "id", link.Id)
		return nil, shared.ErrLinkInvalid
	}
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}

// GetByToken returns a link by its token, or nil when absent.
func (s *ShareLinkService) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	return s.repos.ShareLinks(s.db).GetByToken(ctx, token)
}

// List returns every link, newest first.
func (s *ShareLinkService) List(ctx context.Context) ([]models.ShareLink, error) {
	return s.repos.ShareLinks(s.db).ListAll(ctx)
}

// ListByScope returns the links covering one scope target, newest first.
func (s *ShareLinkService) ListByScope(ctx context.Context, scopeType models.ScopeType, scopeId string) ([]models.ShareLink, error) {
	return s.repos.ShareLinks(s.db).ListByScope(ctx, scopeType, scopeId)
}

// Deactivate turns a link off. Returns false when it was absent or already off.
func (s *ShareLinkService) Deactivate(ctx context.Context, id string) (bool, error) {
	return s.repos.ShareLinks(s.db).SetActive(ctx, id, false)
}

// Reactivate turns a link back on. Returns false when it was absent or already on.
func (s *ShareLinkService) Reactivate(ctx context.Context, id string) (bool, error) {
	return s.repos.ShareLinks(s.db).SetActive(ctx, id, true)
}

// UpdateLabel replaces a link's label. Returns false when the link is absent.
func (s *ShareLinkService) UpdateLabel(ctx context.Context, id, label string) (bool, error) {
	return s.repos.ShareLinks(s.db).UpdateLabel(ctx, id, label)
}

// UpdateExpiry replaces a link's expiry; nil clears it. Returns false when
// the link is absent.
func (s *ShareLinkService) UpdateExpiry(ctx context.Context, id string, expiresAt *time.Time) (bool, error) {
	return s.repos.ShareLinks(s.db).UpdateExpiry(ctx, id, expiresAt)
}

// UpdateMaxUses replaces a link's use cap; nil clears it. Lowering the cap
// below the current use count would break the use-count invariant and is
// rejected with ErrValidation. Returns false when the link is absent.
func (s *ShareLinkService) UpdateMaxUses(ctx context.Context, id string, maxUses *int64) (bool, error) {
	if maxUses != nil && *maxUses <= 0 {
		return false, fmt.Errorf("max uses must be positive: %w", shared.ErrValidation)
	}

	var updated bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.ShareLinks(tx)
		link, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if link == nil {
			return nil
		}
		if maxUses != nil && *maxUses < link.UseCount {
			return fmt.Errorf("max uses %d is below current use count %d: %w", *maxUses, link.UseCount, shared.ErrValidation)
		}
		updated, err = repo.UpdateMaxUses(ctx, id, maxUses)
		return err
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

// Delete removes one link. Returns false when it was absent.
func (s *ShareLinkService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repos.ShareLinks(s.db).Delete(ctx, id)
}

// DeleteByScope removes every link covering a scope target and reports how
// many went away. Zero is a normal result, not an error.
func (s *ShareLinkService) DeleteByScope(ctx context.Context, scopeType models.ScopeType, scopeId string) (int64, error) {
	return s.repos.ShareLinks(s.db).DeleteByScope(ctx, scopeType, scopeId)
}

// CleanupExpired removes links whose expiry has passed and reports the count.
func (s *ShareLinkService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repos.ShareLinks(s.db).DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info(ctx, "expired share links removed", "count", n)
	}
	return n, nil
}
