package versions

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/shared"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE versions (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  content_type TEXT NOT NULL,
  version INTEGER NOT NULL,
  content_hash TEXT NOT NULL,
  content TEXT NOT NULL,
  size_bytes INTEGER NOT NULL,
  created_by TEXT NOT NULL,
  message TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  UNIQUE (item_id, content_type, version)
);
`)
	require.NoError(t, err)
	return db
}

func makeSnapshot(id, itemId string, version int64, content string) *models.VersionSnapshot {
	return &models.VersionSnapshot{
		Id:          id,
		ItemId:      itemId,
		ContentType: models.ItemTypeUnit,
		Version:     version,
		ContentHash: "hash-" + id,
		Content:     []byte(content),
		SizeBytes:   int64(len(content)),
		CreatedBy:   "tester",
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestInsertAndGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	v := makeSnapshot("s1", "u1", 1, `{"armor":10}`)
	v.Message = "initial"
	require.NoError(t, r.Insert(ctx, v))

	got, err := r.Get(ctx, "u1", models.ItemTypeUnit, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "initial", got.Message)
	assert.JSONEq(t, `{"armor":10}`, string(got.Content))
	assert.EqualValues(t, len(`{"armor":10}`), got.SizeBytes)

	got, err = r.Get(ctx, "u1", models.ItemTypeUnit, 2)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInsert_DuplicateVersionIsConflict(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, makeSnapshot("s1", "u1", 1, `{}`)))

	err := r.Insert(ctx, makeSnapshot("s2", "u1", 1, `{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrVersionConflict)
}

func TestMaxVersionAndLatest(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	max, err := r.MaxVersion(ctx, "u1", models.ItemTypeUnit)
	require.NoError(t, err)
	assert.EqualValues(t, 0, max)

	latest, err := r.Latest(ctx, "u1", models.ItemTypeUnit)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, r.Insert(ctx, makeSnapshot("s1", "u1", 1, `{"a":1}`)))
	require.NoError(t, r.Insert(ctx, makeSnapshot("s2", "u1", 2, `{"a":2}`)))

	max, err = r.MaxVersion(ctx, "u1", models.ItemTypeUnit)
	require.NoError(t, err)
	assert.EqualValues(t, 2, max)

	latest, err = r.Latest(ctx, "u1", models.ItemTypeUnit)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.EqualValues(t, 2, latest.Version)
}

func TestList_NewestFirst(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, makeSnapshot("s1", "u1", 1, `{}`)))
	require.NoError(t, r.Insert(ctx, makeSnapshot("s2", "u1", 2, `{}`)))
	require.NoError(t, r.Insert(ctx, makeSnapshot("s3", "u1", 3, `{}`)))
	// other items do not leak in
	require.NoError(t, r.Insert(ctx, makeSnapshot("s4", "u2", 1, `{}`)))

	got, err := r.List(ctx, "u1", models.ItemTypeUnit)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.EqualValues(t, 3, got[0].Version)
	assert.EqualValues(t, 2, got[1].Version)
	assert.EqualValues(t, 1, got[2].Version)
}
