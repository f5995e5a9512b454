// Package repomanager provides a concrete RepositoryManager for SQLite,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/dbx"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/migrations"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/folders"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/items"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/sharelinks"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/versions"
)

// SQLiteRepositoryManager vends SQLite-backed repository implementations.
type SQLiteRepositoryManager struct{}

// NewSQLiteRepositoryManager returns a ready-to-use manager.
func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

// Folders returns a folders.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Folders(db dbx.DBTX) folders.Repository {
	return folders.NewSQLiteRepository(db)
}

// Items returns an items.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Items(db dbx.DBTX) items.Repository {
	return items.NewSQLiteRepository(db)
}

// Versions returns a versions.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Versions(db dbx.DBTX) versions.Repository {
	return versions.NewSQLiteRepository(db)
}

// ShareLinks returns a sharelinks.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) ShareLinks(db dbx.DBTX) sharelinks.Repository {
	return sharelinks.NewSQLiteRepository(db)
}

// RunMigrations applies the embedded goose migrations to db.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
