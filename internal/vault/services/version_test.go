package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/shared"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
)

func TestSaveItem_AppendsGaplessVersions(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	item, snap, err := v.items.SaveItem(ctx, SaveItemParams{
		Type:    models.ItemTypePilot,
		Name:    "Natasha Kerensky",
		Content: json.RawMessage(`{"gunnery":1,"piloting":2}`),
		Actor:   "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)

	for i := 0; i < 3; i++ {
		_, snap, err = v.items.SaveItem(ctx, SaveItemParams{
			Id:      item.Id,
			Type:    item.Type,
			Name:    item.Name,
			Content: json.RawMessage(fmt.Sprintf(`{"gunnery":1,"piloting":2,"kills":%d}`, i+1)),
			Actor:   "tester",
		})
		require.NoError(t, err)
	}
	assert.Equal(t, int64(4), snap.Version)

	history, err := v.versions.ListVersions(ctx, item.Id, item.Type)
	require.NoError(t, err)
	require.Len(t, history, 4)
	// newest first, no gaps
	for i, s := range history {
		assert.Equal(t, int64(4-i), s.Version)
		assert.NotEmpty(t, s.ContentHash)
		assert.Equal(t, "tester", s.CreatedBy)
	}
}

func TestCreateVersion_Validation(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	_, err := v.versions.CreateVersion(ctx, "", models.ItemTypeUnit, json.RawMessage(`{}`), CreateVersionParams{CreatedBy: "t"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = v.versions.CreateVersion(ctx, "x", "mystery", json.RawMessage(`{}`), CreateVersionParams{CreatedBy: "t"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = v.versions.CreateVersion(ctx, "x", models.ItemTypeUnit, json.RawMessage(`{broken`), CreateVersionParams{CreatedBy: "t"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = v.versions.CreateVersion(ctx, "x", models.ItemTypeUnit, json.RawMessage(`{}`), CreateVersionParams{})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateVersion_ConcurrentAllocation(t *testing.T) {
	v := setupFileVault(t)
	ctx := context.Background()

	item := v.saveItem(t, "Warhammer WHM-6R", models.ItemTypeUnit, `{"tonnage":70}`)

	const writers = 4
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			content := json.RawMessage(fmt.Sprintf(`{"tonnage":70,"writer":%d}`, i))
			_, errs[i] = v.versions.CreateVersion(ctx, item.Id, item.Type, content, CreateVersionParams{CreatedBy: "tester"})
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i], "writer %d", i)
	}

	// saveItem wrote version 1; every writer landed its own number after it,
	// with no gaps and no duplicates
	history, err := v.versions.ListVersions(ctx, item.Id, item.Type)
	require.NoError(t, err)
	require.Len(t, history, writers+1)
	for i, snap := range history {
		assert.EqualValues(t, writers+1-i, snap.Version)
	}
}

func TestRollback_AppendsNewVersionWithOldContent(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	item := v.saveItem(t, "Timber Wolf", models.ItemTypeUnit, `{"tonnage":75,"variant":"Prime"}`)
	_, _, err := v.items.SaveItem(ctx, SaveItemParams{
		Id: item.Id, Type: item.Type, Name: item.Name,
		Content: json.RawMessage(`{"tonnage":75,"variant":"A"}`),
		Actor:   "tester",
	})
	require.NoError(t, err)

	snap, err := v.versions.Rollback(ctx, item.Id, item.Type, 1, "tester")
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.Version)
	assert.Equal(t, "rollback to version 1", snap.Message)

	// content is version 1's, verbatim
	v1, err := v.versions.GetVersion(ctx, item.Id, item.Type, 1)
	require.NoError(t, err)
	assert.JSONEq(t, string(v1.Content), string(snap.Content))
	assert.Equal(t, v1.ContentHash, snap.ContentHash)

	// earlier versions survive
	v2, err := v.versions.GetVersion(ctx, item.Id, item.Type, 2)
	require.NoError(t, err)
	assert.NotNil(t, v2)

	// the item row now carries the rolled-back content
	got, err := v.items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tonnage":75,"variant":"Prime"}`, string(got.Content))
}

func TestRollback_MissingTarget(t *testing.T) {
	v := setupVault(t)
	item := v.saveItem(t, "Urbanmech", models.ItemTypeUnit, `{"tonnage":30}`)

	_, err := v.versions.Rollback(context.Background(), item.Id, item.Type, 99, "tester")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDiff_OrderingAndErrors(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	item := v.saveItem(t, "Dire Wolf", models.ItemTypeUnit,
		`{"tonnage":100,"variant":"Prime","armor":304}`)
	_, _, err := v.items.SaveItem(ctx, SaveItemParams{
		Id: item.Id, Type: item.Type, Name: item.Name,
		Content: json.RawMessage(`{"tonnage":100,"variant":"W","speed":48}`),
		Actor:   "tester",
	})
	require.NoError(t, err)

	_, err = v.versions.Diff(ctx, item.Id, item.Type, 2, 1)
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = v.versions.Diff(ctx, item.Id, item.Type, 1, 1)
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = v.versions.Diff(ctx, item.Id, item.Type, 1, 9)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	diff, err := v.versions.Diff(ctx, item.Id, item.Type, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), diff.FromVersion)
	assert.Equal(t, int64(2), diff.ToVersion)

	// fields ordered as in the newer content, deletions last
	assert.Equal(t, []string{"variant", "speed", "armor"}, diff.ChangedFields)
	assert.Contains(t, diff.Additions, "speed")
	assert.Contains(t, diff.Deletions, "armor")
	require.Contains(t, diff.Modifications, "variant")
	assert.JSONEq(t, `"Prime"`, string(diff.Modifications["variant"].From))
	assert.JSONEq(t, `"W"`, string(diff.Modifications["variant"].To))
}
