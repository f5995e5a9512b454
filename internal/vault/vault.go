// Package vault assembles the storage engine: it opens the SQLite database,
// runs migrations and wires every service against one connection pool.
package vault

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/logging"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/config"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/repomanager"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/services"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/signx"
)

// AppVersion is stamped into exported bundles. Overridden at build time via
// -ldflags "-X ...vault.AppVersion=v1.2.3".
var AppVersion = "dev"

// Vault is the assembled engine. Services share one *sql.DB and one
// repository manager, so cross-service operations compose transactionally.
type Vault struct {
	Folders   *services.FolderService
	Items     *services.ItemService
	Versions  *services.VersionService
	Links     *services.ShareLinkService
	Conflicts *services.ConflictService
	Bundles   *services.BundleService

	db  *sql.DB
	log logging.Logger
}

// Open opens (creating if needed) the vault database at cfg.DatabasePath,
// applies migrations and returns the wired services. The caller owns the
// returned Vault and must Close it.
func Open(ctx context.Context, cfg *config.Config, signer signx.Signer, log logging.Logger) (*Vault, error) {
	// _txlock=immediate makes transactions take the write lock at BEGIN, so
	// concurrent writers queue on busy_timeout instead of failing mid-transaction.
	dsn := "file:" + cfg.DatabasePath + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	repos := repomanager.NewSQLiteRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Vault{
		Folders:   services.NewFolderService(db, repos, log),
		Items:     services.NewItemService(db, repos, log),
		Versions:  services.NewVersionService(db, repos, log),
		Links:     services.NewShareLinkService(db, repos, log),
		Conflicts: services.NewConflictService(db, repos, log),
		Bundles:   services.NewBundleService(db, repos, signer, cfg.AuthorName, cfg.FriendCode, AppVersion, log),
		db:        db,
		log:       log,
	}, nil
}

// Close releases the database connection pool.
func (v *Vault) Close() error {
	return v.db.Close()
}

// StartLinkSweeper periodically removes expired share links until ctx is
// cancelled. Intended to run in its own goroutine.
func (v *Vault) StartLinkSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if _, err := v.Links.CleanupExpired(sweepCtx); err != nil {
				v.log.Warn(sweepCtx, "expired link sweep failed", "error", err)
			}
			cancel()

		case <-ctx.Done():
			return
		}
	}
}
