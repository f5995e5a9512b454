package sharelinks

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/shared"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
)

const schema = `
CREATE TABLE share_links (
  id TEXT PRIMARY KEY,
  token TEXT NOT NULL UNIQUE,
  scope_type TEXT NOT NULL,
  scope_id TEXT,
  scope_category TEXT,
  level TEXT NOT NULL,
  expires_at INTEGER,
  max_uses INTEGER,
  use_count INTEGER NOT NULL DEFAULT 0,
  label TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL
);
`

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

// setupFileDB opens a file-backed database so multiple connections can race.
func setupFileDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "links.db")
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

func makeLink(scopeId string) *models.ShareLink {
	token, _ := shared.MakeURLSafeToken(24)
	return &models.ShareLink{
		Id:        uuid.NewString(),
		Token:     token,
		ScopeType: models.ScopeTypeItem,
		ScopeId:   &scopeId,
		Level:     models.AccessLevelRead,
		IsActive:  true,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestInsertAndGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	l := makeLink("u1")
	l.Label = "for Sarah"
	require.NoError(t, r.Insert(ctx, l))

	got, err := r.GetByToken(ctx, l.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, l.Id, got.Id)
	assert.Equal(t, "for Sarah", got.Label)
	require.NotNil(t, got.ScopeId)
	assert.Equal(t, "u1", *got.ScopeId)
	assert.Nil(t, got.ExpiresAt)
	assert.Nil(t, got.MaxUses)
	assert.True(t, got.IsActive)

	missing, err := r.GetByToken(ctx, "no-such-token")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInsert_DuplicateTokenRejected(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	l1 := makeLink("u1")
	require.NoError(t, r.Insert(ctx, l1))

	l2 := makeLink("u2")
	l2.Token = l1.Token
	require.Error(t, r.Insert(ctx, l2), "token uniqueness backstop")
}

func TestRedeemAtomic_CountsAndConditions(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	max := int64(2)
	l := makeLink("u1")
	l.MaxUses = &max
	require.NoError(t, r.Insert(ctx, l))

	for i := 0; i < 2; i++ {
		ok, err := r.RedeemAtomic(ctx, l.Token, now)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	// third redemption is over the cap
	ok, err := r.RedeemAtomic(ctx, l.Token, now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.GetByToken(ctx, l.Token)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.UseCount)
}

func TestRedeemAtomic_ExpiredAndInactive(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := makeLink("u1")
	past := now.Add(-time.Hour)
	expired.ExpiresAt = &past
	require.NoError(t, r.Insert(ctx, expired))

	ok, err := r.RedeemAtomic(ctx, expired.Token, now)
	require.NoError(t, err)
	assert.False(t, ok)

	inactive := makeLink("u2")
	inactive.IsActive = false
	require.NoError(t, r.Insert(ctx, inactive))

	ok, err = r.RedeemAtomic(ctx, inactive.Token, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedeemAtomic_ConcurrentSingleUse(t *testing.T) {
	db := setupFileDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	max := int64(1)
	l := makeLink("u1")
	l.MaxUses = &max
	require.NoError(t, r.Insert(ctx, l))

	const attempts = 8
	results := make([]bool, attempts)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.RedeemAtomic(ctx, l.Token, now)
		}(i)
	}
	wg.Wait()

	successes := 0
	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i])
		if results[i] {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent redemption may claim a single-use link")

	got, err := r.GetByToken(ctx, l.Token)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.UseCount)
}

func TestLifecycleMutators(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	l := makeLink("u1")
	require.NoError(t, r.Insert(ctx, l))

	ok, err := r.SetActive(ctx, l.Id, false)
	require.NoError(t, err)
	assert.True(t, ok)

	// deactivating twice affects nothing
	ok, err = r.SetActive(ctx, l.Id, false)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.SetActive(ctx, l.Id, true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.UpdateLabel(ctx, l.Id, "renamed")
	require.NoError(t, err)
	assert.True(t, ok)

	exp := time.Now().UTC().Add(time.Hour).Truncate(time.Millisecond)
	ok, err = r.UpdateExpiry(ctx, l.Id, &exp)
	require.NoError(t, err)
	assert.True(t, ok)

	max := int64(5)
	ok, err = r.UpdateMaxUses(ctx, l.Id, &max)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := r.GetByID(ctx, l.Id)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Label)
	require.NotNil(t, got.ExpiresAt)
	assert.Equal(t, exp, *got.ExpiresAt)
	require.NotNil(t, got.MaxUses)
	assert.EqualValues(t, 5, *got.MaxUses)

	ok, err = r.UpdateLabel(ctx, "missing", "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteByScopeAndExpiredSweep(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	l1 := makeLink("u1")
	l2 := makeLink("u1")
	l3 := makeLink("u2")
	past := now.Add(-time.Minute)
	l3.ExpiresAt = &past
	require.NoError(t, r.Insert(ctx, l1))
	require.NoError(t, r.Insert(ctx, l2))
	require.NoError(t, r.Insert(ctx, l3))

	n, err := r.DeleteByScope(ctx, models.ScopeTypeItem, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = r.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
