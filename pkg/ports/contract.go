package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	dialogID := "contract-test-dialog-" + time.Now().Format("20060102150405")

	newSnapshot := func() *domain.PendingParams {
		return &domain.PendingParams{
			ActionID: "placeOrder",
			Owner:    domain.Bookmark{LogicalTypeName: "shop.Customer", Identifier: "c-1"},
			Params: []domain.PendingParam{
				{ElementType: "int", Bookmarks: []domain.Bookmark{{LogicalTypeName: "int", Identifier: "3"}}},
				{Plural: true, ElementType: "shop.Product", Bookmarks: []domain.Bookmark{
					{LogicalTypeName: "shop.Product", Identifier: "p-1"},
					{LogicalTypeName: "shop.Product", Identifier: "p-2"},
				}},
				{ElementType: "string"},
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := newSnapshot()

		err := store.Save(ctx, dialogID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, dialogID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.ActionID, loaded.ActionID)
		assert.Equal(t, snap.Owner, loaded.Owner)
		require.Len(t, loaded.Params, 3)
		assert.False(t, loaded.Params[0].Plural)
		assert.True(t, loaded.Params[1].Plural)
		assert.Len(t, loaded.Params[1].Bookmarks, 2)
		assert.Empty(t, loaded.Params[2].Bookmarks)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+dialogID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, dialogID, newSnapshot())
		require.NoError(t, err)

		err = store.Delete(ctx, dialogID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, dialogID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := dialogID + "-1"
		id2 := dialogID + "-2"
		_ = store.Save(ctx, id1, newSnapshot())
		_ = store.Save(ctx, id2, newSnapshot())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		dialogs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, dialogs, id1)
		assert.Contains(t, dialogs, id2)
	})
}
