package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/logging"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/repositories/repomanager"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/signx"
)

// testVault wires every service against one migrated in-memory database.
type testVault struct {
	db       *sql.DB
	repos    *repomanager.SQLiteRepositoryManager
	folders  *FolderService
	items    *ItemService
	versions *VersionService
	links    *ShareLinkService
	sync     *ConflictService
	bundles  *BundleService
}

func setupVault(t *testing.T) *testVault {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	return newTestVault(t, db)
}

// setupFileVault opens a file-backed database with the production DSN
// pragmas, so tests can race several connections against one another.
// The in-memory setup runs on a single connection and cannot do that.
func setupFileVault(t *testing.T) *testVault {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vault.db")
	dsn := "file:" + path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return newTestVault(t, db)
}

func newTestVault(t *testing.T, db *sql.DB) *testVault {
	t.Helper()

	repos := repomanager.NewSQLiteRepositoryManager()
	require.NoError(t, repos.RunMigrations(context.Background(), db))

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	signer := signx.NewSignerFromPassphrase([]byte("test-passphrase"), []byte("test-salt"))

	return &testVault{
		db:       db,
		repos:    repos,
		folders:  NewFolderService(db, repos, log),
		items:    NewItemService(db, repos, log),
		versions: NewVersionService(db, repos, log),
		links:    NewShareLinkService(db, repos, log),
		sync:     NewConflictService(db, repos, log),
		bundles:  NewBundleService(db, repos, signer, "Test Author", "FRIEND-1234", "0.1.0", log),
	}
}

func (v *testVault) saveItem(t *testing.T, name string, itemType models.ItemType, content string) *models.VaultItem {
	t.Helper()
	item, _, err := v.items.SaveItem(context.Background(), SaveItemParams{
		Type:    itemType,
		Name:    name,
		Content: json.RawMessage(content),
		Actor:   "tester",
	})
	require.NoError(t, err)
	return item
}

func strPtr(s string) *string { return &s }

func i64Ptr(n int64) *int64 { return &n }
