package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/shared"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
)

func TestCreateFolder_Validation(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	_, err := v.folders.CreateFolder(ctx, "", CreateFolderOptions{})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = v.folders.CreateFolder(ctx, "orphan", CreateFolderOptions{ParentId: strPtr("nope")})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMoveFolder_RejectsCycle(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	a, err := v.folders.CreateFolder(ctx, "a", CreateFolderOptions{})
	require.NoError(t, err)
	b, err := v.folders.CreateFolder(ctx, "b", CreateFolderOptions{ParentId: &a.Id})
	require.NoError(t, err)
	c, err := v.folders.CreateFolder(ctx, "c", CreateFolderOptions{ParentId: &b.Id})
	require.NoError(t, err)

	// direct self-parenting
	_, err = v.folders.MoveFolder(ctx, a.Id, &a.Id)
	assert.ErrorIs(t, err, shared.ErrCircularReference)

	// a under its grandchild
	_, err = v.folders.MoveFolder(ctx, a.Id, &c.Id)
	assert.ErrorIs(t, err, shared.ErrCircularReference)

	// nothing moved
	got, err := v.folders.GetFolder(ctx, a.Id)
	require.NoError(t, err)
	assert.Nil(t, got.ParentId)
}

func TestMoveFolder_ToRootAndSibling(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	a, err := v.folders.CreateFolder(ctx, "a", CreateFolderOptions{})
	require.NoError(t, err)
	b, err := v.folders.CreateFolder(ctx, "b", CreateFolderOptions{ParentId: &a.Id})
	require.NoError(t, err)

	moved, err := v.folders.MoveFolder(ctx, b.Id, nil)
	require.NoError(t, err)
	assert.True(t, moved)

	roots, err := v.folders.GetRootFolders(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 2)

	moved, err = v.folders.MoveFolder(ctx, "missing", &a.Id)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestDeleteFolder_ReparentsChildrenAndCleansUp(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	top, err := v.folders.CreateFolder(ctx, "top", CreateFolderOptions{})
	require.NoError(t, err)
	mid, err := v.folders.CreateFolder(ctx, "mid", CreateFolderOptions{ParentId: &top.Id})
	require.NoError(t, err)
	leaf, err := v.folders.CreateFolder(ctx, "leaf", CreateFolderOptions{ParentId: &mid.Id})
	require.NoError(t, err)

	item := v.saveItem(t, "Atlas AS7-D", models.ItemTypeUnit, `{"tonnage":100}`)
	require.NoError(t, v.folders.AddItemToFolder(ctx, mid.Id, item.Id, item.Type))

	link, err := v.links.Create(ctx, CreateLinkParams{
		ScopeType: models.ScopeTypeFolder,
		ScopeId:   &mid.Id,
		Level:     models.AccessLevelRead,
	})
	require.NoError(t, err)

	deleted, err := v.folders.DeleteFolder(ctx, mid.Id)
	require.NoError(t, err)
	assert.True(t, deleted)

	// leaf was lifted to mid's former parent, not orphaned or deleted
	got, err := v.folders.GetFolder(ctx, leaf.Id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.ParentId)
	assert.Equal(t, top.Id, *got.ParentId)

	// the item survives, its assignment does not
	stillThere, err := v.items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.NotNil(t, stillThere)
	folders, err := v.folders.GetItemFolders(ctx, item.Id, item.Type)
	require.NoError(t, err)
	assert.Empty(t, folders)

	// the folder-scoped link went with the folder
	gone, err := v.links.GetByToken(ctx, link.Token)
	require.NoError(t, err)
	assert.Nil(t, gone)

	deleted, err = v.folders.DeleteFolder(ctx, mid.Id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteFolder_RootLevelPromotesChildren(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	root, err := v.folders.CreateFolder(ctx, "root", CreateFolderOptions{})
	require.NoError(t, err)
	c1, err := v.folders.CreateFolder(ctx, "c1", CreateFolderOptions{ParentId: &root.Id})
	require.NoError(t, err)
	c2, err := v.folders.CreateFolder(ctx, "c2", CreateFolderOptions{ParentId: &root.Id})
	require.NoError(t, err)

	deleted, err := v.folders.DeleteFolder(ctx, root.Id)
	require.NoError(t, err)
	assert.True(t, deleted)

	// children of a deleted root become roots themselves
	roots, err := v.folders.GetRootFolders(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, c1.Id, roots[0].Id)
	assert.Equal(t, c2.Id, roots[1].Id)
}

func TestAddItemToFolder_CountsAndIdempotency(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	f, err := v.folders.CreateFolder(ctx, "lance", CreateFolderOptions{})
	require.NoError(t, err)
	item := v.saveItem(t, "Shadow Hawk", models.ItemTypeUnit, `{"tonnage":55}`)

	require.NoError(t, v.folders.AddItemToFolder(ctx, f.Id, item.Id, item.Type))
	// re-adding is an upsert, not a second row
	require.NoError(t, v.folders.AddItemToFolder(ctx, f.Id, item.Id, item.Type))

	got, err := v.folders.GetFolder(ctx, f.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ItemCount)

	removed, err := v.folders.RemoveItemFromFolder(ctx, f.Id, item.Id, item.Type)
	require.NoError(t, err)
	assert.True(t, removed)

	got, err = v.folders.GetFolder(ctx, f.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ItemCount)

	removed, err = v.folders.RemoveItemFromFolder(ctx, f.Id, item.Id, item.Type)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestAddItemToFolder_MissingFolder(t *testing.T) {
	v := setupVault(t)
	item := v.saveItem(t, "Wasp", models.ItemTypeUnit, `{"tonnage":20}`)

	err := v.folders.AddItemToFolder(context.Background(), "missing", item.Id, item.Type)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMoveItem_BetweenFolders(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	from, err := v.folders.CreateFolder(ctx, "from", CreateFolderOptions{})
	require.NoError(t, err)
	to, err := v.folders.CreateFolder(ctx, "to", CreateFolderOptions{})
	require.NoError(t, err)
	item := v.saveItem(t, "Marauder", models.ItemTypeUnit, `{"tonnage":75}`)
	require.NoError(t, v.folders.AddItemToFolder(ctx, from.Id, item.Id, item.Type))

	moved, err := v.folders.MoveItem(ctx, item.Id, item.Type, from.Id, to.Id)
	require.NoError(t, err)
	assert.True(t, moved)

	inFrom, err := v.folders.IsItemInFolder(ctx, from.Id, item.Id, item.Type)
	require.NoError(t, err)
	assert.False(t, inFrom)
	inTo, err := v.folders.IsItemInFolder(ctx, to.Id, item.Id, item.Type)
	require.NoError(t, err)
	assert.True(t, inTo)

	fromFolder, err := v.folders.GetFolder(ctx, from.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, fromFolder.ItemCount)
	toFolder, err := v.folders.GetFolder(ctx, to.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, toFolder.ItemCount)

	// not assigned to from anymore, so a second move is a no-op
	moved, err = v.folders.MoveItem(ctx, item.Id, item.Type, from.Id, to.Id)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestMoveItem_MissingTargetRollsBack(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	from, err := v.folders.CreateFolder(ctx, "from", CreateFolderOptions{})
	require.NoError(t, err)
	item := v.saveItem(t, "Rifleman", models.ItemTypeUnit, `{"tonnage":60}`)
	require.NoError(t, v.folders.AddItemToFolder(ctx, from.Id, item.Id, item.Type))

	_, err = v.folders.MoveItem(ctx, item.Id, item.Type, from.Id, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// the unassign inside the failed transaction did not stick
	inFrom, err := v.folders.IsItemInFolder(ctx, from.Id, item.Id, item.Type)
	require.NoError(t, err)
	assert.True(t, inFrom)
}
