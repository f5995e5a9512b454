package versions

import (
	"context"
	"fmt"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/dbx"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/shared"
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

const versionColumns = `id, item_id, content_type, version, content_hash, content, size_bytes, created_by, message, created_at`

func (r *SQLiteRepository) Insert(ctx context.Context, v *models.VersionSnapshot) error {
	query := `INSERT INTO versions (` + versionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		v.Id, v.ItemId, v.ContentType, v.Version, v.ContentHash, string(v.Content),
		v.SizeBytes, v.CreatedBy, v.Message, dbx.Millis(v.CreatedAt))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("version %d for item %s: %w", v.Version, v.ItemId, shared.ErrVersionConflict)
		}
		return fmt.Errorf("failed to insert version: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MaxVersion(ctx context.Context, itemId string, contentType models.ItemType) (int64, error) {
	var max int64
	query := `SELECT COALESCE(MAX(version), 0) FROM versions WHERE item_id = ? AND content_type = ?`
	if err := r.db.QueryRowContext(ctx, query, itemId, contentType).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to select max version: %w", err)
	}
	return max, nil
}

func (r *SQLiteRepository) List(ctx context.Context, itemId string, contentType models.ItemType) ([]models.VersionSnapshot, error) {
	query := `SELECT ` + versionColumns + ` FROM versions
			WHERE item_id = ? AND content_type = ? ORDER BY version DESC`
	rows, err := r.db.QueryContext(ctx, query, itemId, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to select versions: %w", err)
	}
	defer rows.Close()

	var result []models.VersionSnapshot
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) Get(ctx context.Context, itemId string, contentType models.ItemType, version int64) (*models.VersionSnapshot, error) {
	query := `SELECT ` + versionColumns + ` FROM versions
			WHERE item_id = ? AND content_type = ? AND version = ?`
	return r.getOne(ctx, query, itemId, contentType, version)
}

func (r *SQLiteRepository) Latest(ctx context.Context, itemId string, contentType models.ItemType) (*models.VersionSnapshot, error) {
	query := `SELECT ` + versionColumns + ` FROM versions
			WHERE item_id = ? AND content_type = ? ORDER BY version DESC LIMIT 1`
	return r.getOne(ctx, query, itemId, contentType)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, args ...any) (*models.VersionSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select version: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	v, err := scanVersion(rows)
	if err != nil {
		return nil, err
	}
	return v, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*models.VersionSnapshot, error) {
	var v models.VersionSnapshot
	var content string
	var created int64
	if err := row.Scan(&v.Id, &v.ItemId, &v.ContentType, &v.Version, &v.ContentHash,
		&content, &v.SizeBytes, &v.CreatedBy, &v.Message, &created); err != nil {
		return nil, fmt.Errorf("failed to scan version: %w", err)
	}
	v.Content = []byte(content)
	v.CreatedAt = dbx.FromMillis(created)
	return &v, nil
}
