package basket

import (
	"context"
	"fmt"
	"time"

	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
	"github.com/kaniobed28/campus-sell/basket-service/internal/remote"
)

// SaveForLater moves a cart item into the saved list. The create and the
// delete commit as one batch, so the item never exists in both
// collections or in neither. Guests cannot save; saving needs an owner.
func (e *Engine) SaveForLater(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.mode != domain.ModeAuthenticated {
		return ErrAuthenticationRequired
	}

	idx := e.indexOfItemLocked(id)
	if idx < 0 {
		return ErrItemNotFound
	}
	item := e.st.items[idx]

	e.st.updating[id] = true
	defer delete(e.st.updating, id)

	batch := e.store.Batch()
	savedID := batch.SetSavedItem(remote.SavedRecord{
		OwnerID:   e.st.owner,
		ProductID: item.ProductID,
		SavedAt:   time.Now(),
	})
	batch.DeleteCartItem(id)

	if err := batch.Commit(ctx); err != nil {
		e.st.err = err
		return fmt.Errorf("failed to save item for later: %w", err)
	}

	// Local state moves only after the remote commit.
	e.dropItemLocked(id)
	e.st.saved = append(e.st.saved, domain.SavedItem{
		ID:          savedID,
		OwnerID:     e.st.owner,
		ProductID:   item.ProductID,
		SavedAt:     time.Now(),
		Product:     item.Product,
		Unavailable: item.Unavailable,
	})
	e.recomputeLocked()
	e.publishLocked(ctx, domain.ChangeItemSaved, map[string]string{"item_id": id})
	return nil
}

// MoveToBasket is the inverse of SaveForLater, same atomic batch shape.
func (e *Engine) MoveToBasket(ctx context.Context, savedItemID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.mode != domain.ModeAuthenticated {
		return ErrAuthenticationRequired
	}
	return e.moveToBasketLocked(ctx, []string{savedItemID})
}

// BatchMoveToBasket moves several saved items back in one commit.
func (e *Engine) BatchMoveToBasket(ctx context.Context, savedItemIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.mode != domain.ModeAuthenticated {
		return ErrAuthenticationRequired
	}
	return e.moveToBasketLocked(ctx, savedItemIDs)
}

func (e *Engine) moveToBasketLocked(ctx context.Context, savedItemIDs []string) error {
	type move struct {
		saved  domain.SavedItem
		cartID string
	}

	var moves []move
	batch := e.store.Batch()
	for _, id := range savedItemIDs {
		idx := e.indexOfSavedLocked(id)
		if idx < 0 {
			return ErrItemNotFound
		}
		si := e.st.saved[idx]

		cartID := batch.SetCartItem(remote.CartRecord{
			OwnerID:   e.st.owner,
			ProductID: si.ProductID,
			Quantity:  1,
			CreatedAt: time.Now(),
		})
		batch.DeleteSavedItem(id)
		moves = append(moves, move{saved: si, cartID: cartID})
	}

	if err := batch.Commit(ctx); err != nil {
		e.st.err = err
		return fmt.Errorf("failed to move items to basket: %w", err)
	}

	for _, mv := range moves {
		e.dropSavedLocked(mv.saved.ID)
		e.st.items = append(e.st.items, domain.CartItem{
			ID:          domain.ConfirmedID(mv.cartID),
			OwnerID:     e.st.owner,
			ProductID:   mv.saved.ProductID,
			Quantity:    1,
			CreatedAt:   time.Now(),
			Product:     mv.saved.Product,
			Unavailable: mv.saved.Unavailable,
		})
	}
	e.recomputeLocked()
	e.publishLocked(ctx, domain.ChangeItemMoved, nil)
	return nil
}

// BatchRemoveSavedItems deletes several saved items in one commit.
func (e *Engine) BatchRemoveSavedItems(ctx context.Context, savedItemIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.mode != domain.ModeAuthenticated {
		return ErrAuthenticationRequired
	}

	batch := e.store.Batch()
	for _, id := range savedItemIDs {
		if e.indexOfSavedLocked(id) < 0 {
			return ErrItemNotFound
		}
		batch.DeleteSavedItem(id)
	}

	if err := batch.Commit(ctx); err != nil {
		e.st.err = err
		return fmt.Errorf("failed to remove saved items: %w", err)
	}

	for _, id := range savedItemIDs {
		e.dropSavedLocked(id)
	}
	e.publishLocked(ctx, domain.ChangeItemRemoved, nil)
	return nil
}

func (e *Engine) indexOfSavedLocked(id string) int {
	for i := range e.st.saved {
		if e.st.saved[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) dropSavedLocked(id string) {
	for i := range e.st.saved {
		if e.st.saved[i].ID == id {
			e.st.saved = append(e.st.saved[:i], e.st.saved[i+1:]...)
			return
		}
	}
}
