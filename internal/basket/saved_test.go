package basket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveForLater_GuestRejected(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	require.NoError(t, rig.engine.Initialize(ctx))
	require.NoError(t, rig.engine.AddItem(ctx, productP1, 1))

	err := rig.engine.SaveForLater(ctx, "P1")
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestSaveForLater_MovesItemAtomically(t *testing.T) {
	rig := signedInRig(t, "user-1")
	ctx := context.Background()
	require.NoError(t, rig.engine.AddItem(ctx, productP1, 2))
	id := rig.engine.State().Items[0].ID.Value

	require.NoError(t, rig.engine.SaveForLater(ctx, id))

	st := rig.engine.State()
	assert.Empty(t, st.Items)
	require.Len(t, st.SavedItems, 1)
	assert.Equal(t, "P1", st.SavedItems[0].ProductID)
	assert.Equal(t, 0, st.ItemCount)

	cartRecs, err := rig.store.ListCartItems(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cartRecs)
	savedRecs, err := rig.store.ListSavedItems(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, savedRecs, 1)
}

func TestSaveForLater_CommitFailureChangesNothing(t *testing.T) {
	rig := signedInRig(t, "user-1")
	ctx := context.Background()
	require.NoError(t, rig.engine.AddItem(ctx, productP1, 2))
	id := rig.engine.State().Items[0].ID.Value

	rig.store.failCommit = true
	err := rig.engine.SaveForLater(ctx, id)
	require.Error(t, err)

	st := rig.engine.State()
	require.Len(t, st.Items, 1, "item never left the basket")
	assert.Empty(t, st.SavedItems)
	assert.NotEmpty(t, st.Err)
	assert.Empty(t, st.Updating)

	savedRecs, listErr := rig.store.ListSavedItems(ctx, "user-1")
	require.NoError(t, listErr)
	assert.Empty(t, savedRecs, "no orphan saved record from the aborted batch")
}

func TestSaveForLater_UnknownItem(t *testing.T) {
	rig := signedInRig(t, "user-1")

	err := rig.engine.SaveForLater(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestMoveToBasket_Inverse(t *testing.T) {
	rig := signedInRig(t, "user-1")
	ctx := context.Background()
	require.NoError(t, rig.engine.AddItem(ctx, productP1, 2))
	id := rig.engine.State().Items[0].ID.Value
	require.NoError(t, rig.engine.SaveForLater(ctx, id))
	savedID := rig.engine.State().SavedItems[0].ID

	require.NoError(t, rig.engine.MoveToBasket(ctx, savedID))

	st := rig.engine.State()
	assert.Empty(t, st.SavedItems)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "P1", st.Items[0].ProductID)
	assert.False(t, st.Items[0].ID.Pending)

	savedRecs, err := rig.store.ListSavedItems(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, savedRecs)
}

func TestBatchMoveToBasket(t *testing.T) {
	rig := signedInRig(t, "user-1")
	ctx := context.Background()
	require.NoError(t, rig.engine.AddItem(ctx, productP1, 1))
	require.NoError(t, rig.engine.AddItem(ctx, productP2, 1))

	var savedIDs []string
	for _, it := range rig.engine.State().Items {
		require.NoError(t, rig.engine.SaveForLater(ctx, it.ID.Value))
	}
	for _, si := range rig.engine.State().SavedItems {
		savedIDs = append(savedIDs, si.ID)
	}
	require.Len(t, savedIDs, 2)

	require.NoError(t, rig.engine.BatchMoveToBasket(ctx, savedIDs))

	st := rig.engine.State()
	assert.Empty(t, st.SavedItems)
	assert.Len(t, st.Items, 2)
}

func TestBatchRemoveSavedItems(t *testing.T) {
	rig := signedInRig(t, "user-1")
	ctx := context.Background()
	require.NoError(t, rig.engine.AddItem(ctx, productP1, 1))
	id := rig.engine.State().Items[0].ID.Value
	require.NoError(t, rig.engine.SaveForLater(ctx, id))
	savedID := rig.engine.State().SavedItems[0].ID

	require.NoError(t, rig.engine.BatchRemoveSavedItems(ctx, []string{savedID}))

	assert.Empty(t, rig.engine.State().SavedItems)
	savedRecs, err := rig.store.ListSavedItems(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, savedRecs)
}

func TestSavedItem_UnresolvedProductReported(t *testing.T) {
	rig := signedInRig(t, "user-1")
	ctx := context.Background()
	require.NoError(t, rig.engine.AddItem(ctx, productP1, 1))
	id := rig.engine.State().Items[0].ID.Value
	require.NoError(t, rig.engine.SaveForLater(ctx, id))

	// The listing disappears from the catalog afterwards.
	rig.lookup.mu.Lock()
	delete(rig.lookup.products, "P1")
	rig.lookup.mu.Unlock()

	require.NoError(t, rig.engine.Sync(ctx))

	st := rig.engine.State()
	require.Len(t, st.SavedItems, 1)
	assert.True(t, st.SavedItems[0].Unavailable)
	assert.Nil(t, st.SavedItems[0].Product)
	assert.Empty(t, st.Err)
}
