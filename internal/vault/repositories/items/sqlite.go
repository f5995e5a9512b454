package items

import (
	"context"
	"fmt"
	"strings"
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

const itemColumns = `id, item_type, name, content, created_at, updated_at`

func (r *SQLiteRepository) Insert(ctx context.Context, item *models.VaultItem) error {
	query := `INSERT INTO items (` + itemColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		item.Id, item.Type, item.Name, string(item.Content),
		dbx.Millis(item.CreatedAt), dbx.Millis(item.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, item *models.VaultItem) (bool, error) {
	query := `UPDATE items SET name = ?, content = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, item.Name, string(item.Content), dbx.Millis(time.Now()), item.Id)
	if err != nil {
		return false, fmt.Errorf("failed to update item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.VaultItem, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetByIdentity(ctx context.Context, name string, itemType models.ItemType) (*models.VaultItem, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE name = ? AND item_type = ?`, name, itemType)
}

func (r *SQLiteRepository) ListByType(ctx context.Context, itemType models.ItemType) ([]models.VaultItem, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM items WHERE item_type = ? ORDER BY name`, itemType)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]models.VaultItem, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM items ORDER BY item_type, name`)
}

func (r *SQLiteRepository) ListByIDs(ctx context.Context, ids []string) ([]models.VaultItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT ` + itemColumns + ` FROM items WHERE id IN (` + placeholders + `) ORDER BY item_type, name`
	return r.list(ctx, query, args...)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, args ...any) (*models.VaultItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select item: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	item, err := scanItem(rows)
	if err != nil {
		return nil, err
	}
	return item, rows.Err()
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.VaultItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	var result []models.VaultItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.VaultItem, error) {
	var item models.VaultItem
	var content string
	var created, updated int64
	if err := row.Scan(&item.Id, &item.Type, &item.Name, &content, &created, &updated); err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	item.Content = []byte(content)
	item.CreatedAt = dbx.FromMillis(created)
	item.UpdatedAt = dbx.FromMillis(updated)
	return &item, nil
}
