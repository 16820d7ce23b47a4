package remote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestStore(t *testing.T) (Store, func()) {
	ctx := context.Background()

	// Replica set so batch commits can use transactions.
	mongoContainer, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	require.NoError(t, EnsureIndexes(ctx, db))

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return NewMongoStore(db), cleanup
}

func TestCartItem_CRUD(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id, err := store.CreateCartItem(ctx, CartRecord{
		OwnerID:   "user-1",
		ProductID: "P1",
		Quantity:  2,
		CreatedAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	recs, err := store.ListCartItems(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, id, recs[0].ID)
	assert.Equal(t, "P1", recs[0].ProductID)
	assert.Equal(t, 2, recs[0].Quantity)

	require.NoError(t, store.UpdateCartItem(ctx, id, 5))
	recs, err = store.ListCartItems(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, recs[0].Quantity)

	require.NoError(t, store.DeleteCartItem(ctx, id))
	recs, err = store.ListCartItems(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCartItem_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	assert.ErrorIs(t, store.UpdateCartItem(ctx, "64b0c5f2a4e8d3b2c1a0ffff", 1), ErrRecordNotFound)
	assert.ErrorIs(t, store.DeleteCartItem(ctx, "64b0c5f2a4e8d3b2c1a0ffff"), ErrRecordNotFound)
	assert.ErrorIs(t, store.DeleteCartItem(ctx, "not-a-hex-id"), ErrRecordNotFound)
}

func TestListCartItems_ScopedToOwner(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.CreateCartItem(ctx, CartRecord{OwnerID: "user-1", ProductID: "P1", Quantity: 1})
	require.NoError(t, err)
	_, err = store.CreateCartItem(ctx, CartRecord{OwnerID: "user-2", ProductID: "P2", Quantity: 1})
	require.NoError(t, err)

	recs, err := store.ListCartItems(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "P1", recs[0].ProductID)
}

func TestBatch_CommitsAcrossCollections(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	cartID, err := store.CreateCartItem(ctx, CartRecord{OwnerID: "user-1", ProductID: "P1", Quantity: 2})
	require.NoError(t, err)

	// Save-for-later shape: saved create plus cart delete in one commit.
	batch := store.Batch()
	savedID := batch.SetSavedItem(SavedRecord{OwnerID: "user-1", ProductID: "P1"})
	batch.DeleteCartItem(cartID)
	require.NoError(t, batch.Commit(ctx))

	cartRecs, err := store.ListCartItems(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cartRecs)

	savedRecs, err := store.ListSavedItems(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, savedRecs, 1)
	assert.Equal(t, savedID, savedRecs[0].ID)
}

func TestBatch_EmptyCommitIsNoOp(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, store.Batch().Commit(context.Background()))
}

func TestDeleteAllCartItems(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, p := range []string{"P1", "P2", "P3"} {
		_, err := store.CreateCartItem(ctx, CartRecord{OwnerID: "user-1", ProductID: p, Quantity: 1})
		require.NoError(t, err)
	}
	_, err := store.CreateCartItem(ctx, CartRecord{OwnerID: "user-2", ProductID: "P9", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, store.DeleteAllCartItems(ctx, "user-1"))

	recs, err := store.ListCartItems(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, recs)

	other, err := store.ListCartItems(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
