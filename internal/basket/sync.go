package basket

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
	"github.com/kaniobed28/campus-sell/basket-service/internal/remote"
)

// Sync replaces the in-memory lists with whatever the remote store holds.
// Remote wins: unsynced optimistic edits are dropped rather than merged,
// which is what keeps concurrent devices convergent. Concurrent callers
// share one pass through singleflight.
func (e *Engine) Sync(ctx context.Context) error {
	_, err, _ := e.sfg.Do("sync", func() (interface{}, error) {
		e.mu.Lock()
		defer e.mu.Unlock()
		return nil, e.resyncLocked(ctx)
	})
	return err
}

func (e *Engine) resyncLocked(ctx context.Context) error {
	if e.st.mode != domain.ModeAuthenticated {
		return nil
	}

	e.st.loading = true
	defer func() { e.st.loading = false }()

	cartRecs, err := e.store.ListCartItems(ctx, e.st.owner)
	if err != nil {
		e.st.err = err
		return fmt.Errorf("failed to fetch cart: %w", err)
	}
	savedRecs, err := e.store.ListSavedItems(ctx, e.st.owner)
	if err != nil {
		e.st.err = err
		return fmt.Errorf("failed to fetch saved items: %w", err)
	}

	snapshots := e.resolveProductsLocked(ctx, cartRecs, savedRecs)

	items := make([]domain.CartItem, 0, len(cartRecs))
	for _, rec := range cartRecs {
		item := domain.CartItem{
			ID:        domain.ConfirmedID(rec.ID),
			OwnerID:   rec.OwnerID,
			ProductID: rec.ProductID,
			Quantity:  rec.Quantity,
			CreatedAt: rec.CreatedAt,
		}
		if snap, ok := snapshots[rec.ProductID]; ok {
			p := snap
			item.Product = &p
		} else {
			// Listing is gone or the catalog is down. Keep the row so
			// the owner can still remove it, just leave it out of the
			// displayed totals.
			item.Unavailable = true
		}
		items = append(items, item)
	}

	saved := make([]domain.SavedItem, 0, len(savedRecs))
	for _, rec := range savedRecs {
		si := domain.SavedItem{
			ID:        rec.ID,
			OwnerID:   rec.OwnerID,
			ProductID: rec.ProductID,
			SavedAt:   rec.SavedAt,
		}
		if snap, ok := snapshots[rec.ProductID]; ok {
			p := snap
			si.Product = &p
		} else {
			si.Unavailable = true
		}
		saved = append(saved, si)
	}

	e.st.items = items
	e.st.saved = saved
	e.st.lastSync = time.Now()
	e.st.pending = false
	e.recomputeLocked()
	return nil
}

// resolveProductsLocked batches one catalog lookup for every product id
// referenced by either list. A lookup failure is not fatal to the sync;
// everything just degrades to unavailable until the next pass.
func (e *Engine) resolveProductsLocked(ctx context.Context, cartRecs []remote.CartRecord, savedRecs []remote.SavedRecord) map[string]domain.ProductSnapshot {
	seen := make(map[string]bool)
	var ids []string
	for _, rec := range cartRecs {
		if !seen[rec.ProductID] {
			seen[rec.ProductID] = true
			ids = append(ids, rec.ProductID)
		}
	}
	for _, rec := range savedRecs {
		if !seen[rec.ProductID] {
			seen[rec.ProductID] = true
			ids = append(ids, rec.ProductID)
		}
	}

	snapshots, err := e.lookup.GetMany(ctx, ids)
	if err != nil {
		log.Printf("product lookup failed during sync: %v", err)
		return map[string]domain.ProductSnapshot{}
	}
	return snapshots
}

// handleSyncEvent runs on the broadcaster's goroutine. Events from this
// instance, for another owner, or older than the last sync are noise.
func (e *Engine) handleSyncEvent(ev domain.SyncEvent) {
	e.mu.Lock()
	stale := e.st.mode != domain.ModeAuthenticated ||
		ev.OwnerID != e.st.owner ||
		ev.Data["source"] == e.instanceID ||
		!ev.Timestamp.After(e.st.lastSync)
	e.mu.Unlock()

	if stale {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()
	if err := e.Sync(ctx); err != nil {
		log.Printf("sync after cross-process event failed: %v", err)
	}
}

// publishLocked announces an authenticated mutation to sibling agents.
// Best effort; a failed publish only delays their convergence until the
// next event.
func (e *Engine) publishLocked(ctx context.Context, change domain.ChangeType, data map[string]string) {
	if data == nil {
		data = make(map[string]string, 1)
	}
	data["source"] = e.instanceID

	ev := domain.SyncEvent{
		OwnerID:   e.st.owner,
		Change:    change,
		Timestamp: time.Now(),
		Data:      data,
	}
	if err := e.bus.Publish(ctx, ev); err != nil {
		log.Printf("failed to publish sync event: %v", err)
	}
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, remote.ErrRecordNotFound)
}
