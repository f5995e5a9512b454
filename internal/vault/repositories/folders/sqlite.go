package folders

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

const folderColumns = `id, name, description, parent_id, item_count, is_shared, created_at, updated_at`

func (r *SQLiteRepository) Insert(ctx context.Context, f *models.VaultFolder) error {
	query := `INSERT INTO folders (` + folderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		f.Id, f.Name, f.Description, f.ParentId, f.ItemCount, f.IsShared,
		dbx.Millis(f.CreatedAt), dbx.Millis(f.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert folder: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.VaultFolder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = ?`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select folder: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	f, err := scanFolder(rows)
	if err != nil {
		return nil, err
	}
	return f, rows.Err()
}

func (r *SQLiteRepository) UpdateParent(ctx context.Context, id string, parentId *string) (bool, error) {
	query := `UPDATE folders SET parent_id = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, parentId, dbx.Millis(time.Now()), id)
	if err != nil {
		return false, fmt.Errorf("failed to update folder parent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ReparentChildren(ctx context.Context, oldParentId string, newParentId *string) (int64, error) {
	query := `UPDATE folders SET parent_id = ?, updated_at = ? WHERE parent_id = ?`
	res, err := r.db.ExecContext(ctx, query, newParentId, dbx.Millis(time.Now()), oldParentId)
	if err != nil {
		return 0, fmt.Errorf("failed to reparent children: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete folder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM folders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count folders: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListRoot(ctx context.Context) ([]models.VaultFolder, error) {
	return r.list(ctx, `SELECT `+folderColumns+` FROM folders WHERE parent_id IS NULL ORDER BY name`)
}

func (r *SQLiteRepository) ListChildren(ctx context.Context, parentId string) ([]models.VaultFolder, error) {
	return r.list(ctx, `SELECT `+folderColumns+` FROM folders WHERE parent_id = ? ORDER BY name`, parentId)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]models.VaultFolder, error) {
	return r.list(ctx, `SELECT `+folderColumns+` FROM folders ORDER BY name`)
}

func (r *SQLiteRepository) ListShared(ctx context.Context) ([]models.VaultFolder, error) {
	return r.list(ctx, `SELECT `+folderColumns+` FROM folders WHERE is_shared = 1 ORDER BY name`)
}

func (r *SQLiteRepository) AssignItem(ctx context.Context, fi *models.FolderItem) error {
	query := `INSERT INTO folder_items (folder_id, item_id, item_type, assigned_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(folder_id, item_id, item_type) DO UPDATE SET assigned_at = excluded.assigned_at
	`
	_, err := r.db.ExecContext(ctx, query, fi.FolderId, fi.ItemId, fi.ItemType, dbx.Millis(fi.AssignedAt))
	if err != nil {
		return fmt.Errorf("failed to assign item to folder: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UnassignItem(ctx context.Context, folderId, itemId string, itemType models.ItemType) (bool, error) {
	query := `DELETE FROM folder_items WHERE folder_id = ? AND item_id = ? AND item_type = ?`
	res, err := r.db.ExecContext(ctx, query, folderId, itemId, itemType)
	if err != nil {
		return false, fmt.Errorf("failed to unassign item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) IsItemInFolder(ctx context.Context, folderId, itemId string, itemType models.ItemType) (bool, error) {
	var one int
	query := `SELECT 1 FROM folder_items WHERE folder_id = ? AND item_id = ? AND item_type = ?`
	rows, err := r.db.QueryContext(ctx, query, folderId, itemId, itemType)
	if err != nil {
		return false, fmt.Errorf("failed to probe assignment: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return false, rows.Err()
	}
	if err := rows.Scan(&one); err != nil {
		return false, err
	}
	return true, rows.Err()
}

func (r *SQLiteRepository) ListFolderItems(ctx context.Context, folderId string) ([]models.FolderItem, error) {
	query := `SELECT folder_id, item_id, item_type, assigned_at FROM folder_items
			WHERE folder_id = ? ORDER BY assigned_at DESC, item_id`
	rows, err := r.db.QueryContext(ctx, query, folderId)
	if err != nil {
		return nil, fmt.Errorf("failed to select folder items: %w", err)
	}
	defer rows.Close()

	var result []models.FolderItem
	for rows.Next() {
		var fi models.FolderItem
		var assigned int64
		if err := rows.Scan(&fi.FolderId, &fi.ItemId, &fi.ItemType, &assigned); err != nil {
			return nil, err
		}
		fi.AssignedAt = dbx.FromMillis(assigned)
		result = append(result, fi)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) ListItemFolders(ctx context.Context, itemId string, itemType models.ItemType) ([]models.VaultFolder, error) {
	query := `SELECT f.id, f.name, f.description, f.parent_id, f.item_count, f.is_shared, f.created_at, f.updated_at
			FROM folders f
			JOIN folder_items fi ON fi.folder_id = f.id
			WHERE fi.item_id = ? AND fi.item_type = ?
			ORDER BY f.name`
	return r.list(ctx, query, itemId, itemType)
}

func (r *SQLiteRepository) RemoveFolderAssignments(ctx context.Context, folderId string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM folder_items WHERE folder_id = ?`, folderId)
	if err != nil {
		return 0, fmt.Errorf("failed to remove folder assignments: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) RemoveItemAssignments(ctx context.Context, itemId string, itemType models.ItemType) ([]string, error) {
	query := `SELECT folder_id FROM folder_items WHERE item_id = ? AND item_type = ?`
	rows, err := r.db.QueryContext(ctx, query, itemId, itemType)
	if err != nil {
		return nil, fmt.Errorf("failed to select item assignments: %w", err)
	}
	defer rows.Close()

	var folderIds []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		folderIds = append(folderIds, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `DELETE FROM folder_items WHERE item_id = ? AND item_type = ?`, itemId, itemType)
	if err != nil {
		return nil, fmt.Errorf("failed to remove item assignments: %w", err)
	}
	return folderIds, nil
}

func (r *SQLiteRepository) RecomputeItemCount(ctx context.Context, folderId string) error {
	query := `UPDATE folders
			SET item_count = (SELECT COUNT(*) FROM folder_items WHERE folder_id = ?)
			WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, folderId, folderId); err != nil {
		return fmt.Errorf("failed to recompute item count: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.VaultFolder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	var result []models.VaultFolder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row rowScanner) (*models.VaultFolder, error) {
	var f models.VaultFolder
	var created, updated int64
	if err := row.Scan(&f.Id, &f.Name, &f.Description, &f.ParentId, &f.ItemCount, &f.IsShared, &created, &updated); err != nil {
		return nil, fmt.Errorf("failed to scan folder: %w", err)
	}
	f.CreatedAt = dbx.FromMillis(created)
	f.UpdatedAt = dbx.FromMillis(updated)
	return &f, nil
}
