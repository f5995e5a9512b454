package sharelinks

import (
	"context"
	"fmt"
	"time"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/dbx"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const linkColumns = `id, token, scope_type, scope_id, scope_category, level, expires_at, max_uses, use_count, label, is_active, created_at`

func (r *SQLiteRepository) Insert(ctx context.Context, l *models.ShareLink) error {
	query := `INSERT INTO share_links (` + linkColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		l.Id, l.Token, l.ScopeType, l.ScopeId, l.ScopeCategory, l.Level,
		dbx.NullMillis(l.ExpiresAt), l.MaxUses, l.UseCount, l.Label, l.IsActive,
		dbx.Millis(l.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert share link: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.ShareLink, error) {
	return r.getOne(ctx, `SELECT `+linkColumns+` FROM share_links WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	return r.getOne(ctx, `SELECT `+linkColumns+` FROM share_links WHERE token = ?`, token)
}

// RedeemAtomic is the single authority on redemption. The WHERE clause
// re-checks every redeemability condition in the same statement that claims
// the use, so two concurrent redemptions of a one-use link can never both
// succeed: the second UPDATE matches zero rows.
func (r *SQLiteRepository) RedeemAtomic(ctx context.Context, token string, now time.Time) (bool, error) {
	query := `UPDATE share_links
			SET use_count = use_count + 1
			WHERE token = ?
			  AND is_active = 1
			  AND (expires_at IS NULL OR expires_at > ?)
			  AND (max_uses IS NULL OR use_count < max_uses)`
	res, err := r.db.ExecContext(ctx, query, token, dbx.Millis(now))
	if err != nil {
		return false, fmt.Errorf("failed to redeem share link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]models.ShareLink, error) {
	return r.list(ctx, `SELECT `+linkColumns+` FROM share_links ORDER BY created_at DESC, id`)
}

func (r *SQLiteRepository) ListByScope(ctx context.Context, scopeType models.ScopeType, scopeId string) ([]models.ShareLink, error) {
	query := `SELECT ` + linkColumns + ` FROM share_links
			WHERE scope_type = ? AND scope_id = ? ORDER BY created_at DESC, id`
	return r.list(ctx, query, scopeType, scopeId)
}

func (r *SQLiteRepository) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	query := `UPDATE share_links SET is_active = ? WHERE id = ? AND is_active != ?`
	res, err := r.db.ExecContext(ctx, query, active, id, active)
	if err != nil {
		return false, fmt.Errorf("failed to update share link state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) UpdateLabel(ctx context.Context, id, label string) (bool, error) {
	return r.update(ctx, `UPDATE share_links SET label = ? WHERE id = ?`, label, id)
}

func (r *SQLiteRepository) UpdateExpiry(ctx context.Context, id string, expiresAt *time.Time) (bool, error) {
	return r.update(ctx, `UPDATE share_links SET expires_at = ? WHERE id = ?`, dbx.NullMillis(expiresAt), id)
}

func (r *SQLiteRepository) UpdateMaxUses(ctx context.Context, id string, maxUses *int64) (bool, error) {
	return r.update(ctx, `UPDATE share_links SET max_uses = ? WHERE id = ?`, maxUses, id)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.update(ctx, `DELETE FROM share_links WHERE id = ?`, id)
}

func (r *SQLiteRepository) DeleteByScope(ctx context.Context, scopeType models.ScopeType, scopeId string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM share_links WHERE scope_type = ? AND scope_id = ?`, scopeType, scopeId)
	if err != nil {
		return 0, fmt.Errorf("failed to delete share links by scope: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM share_links WHERE expires_at IS NOT NULL AND expires_at <= ?`, dbx.Millis(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired share links: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) update(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update share link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, args ...any) (*models.ShareLink, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select share link: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	l, err := scanLink(rows)
	if err != nil {
		return nil, err
	}
	return l, rows.Err()
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.ShareLink, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select share links: %w", err)
	}
	defer rows.Close()

	var result []models.ShareLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *l)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*models.ShareLink, error) {
	var l models.ShareLink
	var category *string
	var expires *int64
	var created int64
	if err := row.Scan(&l.Id, &l.Token, &l.ScopeType, &l.ScopeId, &category, &l.Level,
		&expires, &l.MaxUses, &l.UseCount, &l.Label, &l.IsActive, &created); err != nil {
		return nil, fmt.Errorf("failed to scan share link: %w", err)
	}
	if category != nil {
		ct := models.ItemType(*category)
		l.ScopeCategory = &ct
	}
	l.ExpiresAt = dbx.FromNullMillis(expires)
	l.CreatedAt = dbx.FromMillis(created)
	return &l, nil
}
