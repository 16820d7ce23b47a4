package basket

import (
	"context"
	"fmt"
	"log"

	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
	"github.com/kaniobed28/campus-sell/basket-service/internal/localstore"
	"github.com/kaniobed28/campus-sell/basket-service/internal/remote"
)

// migrateGuestLocked copies the device's guest items into the remote
// store as one batch, then clears local storage. Order matters: a failed
// commit leaves the blob in place, so the next sign-in simply tries
// again. Original add timestamps carry over; guest-local identity does
// not, the store assigns durable ids.
func (e *Engine) migrateGuestLocked(ctx context.Context, blob localstore.Blob) error {
	batch := e.store.Batch()
	for _, gi := range blob.Items {
		batch.SetCartItem(remote.CartRecord{
			OwnerID:   e.st.owner,
			ProductID: gi.ProductID,
			Quantity:  gi.Quantity,
			CreatedAt: gi.AddedAt,
		})
	}

	if err := batch.Commit(ctx); err != nil {
		e.st.err = err
		return fmt.Errorf("failed to migrate guest basket: %w", err)
	}

	if err := e.local.Clear(); err != nil {
		// The rows are already durable; a leftover blob gets migrated
		// again on the next sign-in.
		log.Printf("failed to clear guest basket after migration: %v", err)
	}
	e.st.guest = nil

	if err := e.resyncLocked(ctx); err != nil {
		return err
	}
	e.publishLocked(ctx, domain.ChangeMigrated, nil)
	return nil
}
