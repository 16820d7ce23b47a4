package basket

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kaniobed28/campus-sell/basket-service/internal/broadcast"
	"github.com/kaniobed28/campus-sell/basket-service/internal/catalog"
	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
	"github.com/kaniobed28/campus-sell/basket-service/internal/identity"
	"github.com/kaniobed28/campus-sell/basket-service/internal/localstore"
	"github.com/kaniobed28/campus-sell/basket-service/internal/remote"
)

// syncTimeout bounds background resyncs triggered by identity changes and
// cross-process events, which carry no caller deadline.
const syncTimeout = 10 * time.Second

// Engine owns the basket state for one device agent. One Engine lives for
// the life of the process. All operations serialize on a single mutex, so
// a mutation runs to completion before the next one starts; the remote
// store stays the source of truth and every failure path converges by
// re-syncing against it.
type Engine struct {
	mu  sync.Mutex
	sfg singleflight.Group // collapses concurrent sync triggers

	// instanceID tags published sync events so the engine can ignore its
	// own broadcasts coming back around.
	instanceID string

	store  remote.Store
	local  localstore.Store
	lookup catalog.Lookup
	ident  identity.Provider
	bus    broadcast.Broadcaster

	st          state
	initialized bool
}

// state is the mutable aggregate guarded by Engine.mu.
type state struct {
	mode  domain.Mode
	owner string

	items []domain.CartItem
	saved []domain.SavedItem
	guest []domain.GuestItem

	loading  bool
	updating map[string]bool
	err      error

	totalPrice float64
	itemCount  int
	lastSync   time.Time
	pending    bool
}

func NewEngine(store remote.Store, local localstore.Store, lookup catalog.Lookup, ident identity.Provider, bus broadcast.Broadcaster) *Engine {
	return &Engine{
		instanceID: uuid.NewString(),
		store:      store,
		local:      local,
		lookup:     lookup,
		ident:      ident,
		bus:        bus,
		st: state{
			mode:     domain.ModeGuest,
			updating: make(map[string]bool),
		},
	}
}

// Initialize loads the basket for the current identity and hooks up the
// identity and cross-process subscriptions. Safe to call more than once;
// a repeat call just re-enters the current mode.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		e.initialized = true
		ch := e.ident.Subscribe()
		go e.watchIdentity(ch)
		e.bus.Subscribe(context.Background(), e.handleSyncEvent)
	}

	if owner := e.ident.CurrentOwnerID(); owner != "" {
		return e.enterAuthenticatedLocked(ctx, owner)
	}
	return e.enterGuestLocked()
}

func (e *Engine) watchIdentity(ch <-chan identity.Event) {
	for ev := range ch {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)

		e.mu.Lock()
		var err error
		if ev.OwnerID == "" {
			err = e.enterGuestLocked()
		} else {
			err = e.enterAuthenticatedLocked(ctx, ev.OwnerID)
		}
		e.mu.Unlock()
		cancel()

		if err != nil {
			log.Printf("identity transition to %q failed: %v", ev.OwnerID, err)
		}
	}
}

// enterAuthenticatedLocked switches to authenticated mode: sync against
// the remote store, then migrate whatever the guest left on this device.
func (e *Engine) enterAuthenticatedLocked(ctx context.Context, owner string) error {
	e.st.mode = domain.ModeAuthenticated
	e.st.owner = owner

	if err := e.resyncLocked(ctx); err != nil {
		return err
	}

	blob, err := e.local.Read()
	if err != nil {
		log.Printf("failed to read guest basket before migration: %v", err)
		return nil
	}
	if blob.Empty() {
		return nil
	}
	return e.migrateGuestLocked(ctx, blob)
}

// enterGuestLocked switches to guest mode. Authenticated lists are
// dropped; local guest storage is left alone and reloaded as-is.
func (e *Engine) enterGuestLocked() error {
	e.st.mode = domain.ModeGuest
	e.st.owner = ""
	e.st.items = nil
	e.st.saved = nil
	e.st.pending = false
	e.st.updating = make(map[string]bool)

	blob, err := e.local.Read()
	if err != nil {
		e.st.err = err
		return fmt.Errorf("failed to load guest basket: %w", err)
	}
	e.st.guest = blob.Items
	e.recomputeLocked()
	return nil
}

// State returns a copy of the current aggregate for callers to render.
func (e *Engine) State() domain.BasketState {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := domain.BasketState{
		Mode:              e.st.mode,
		Items:             append([]domain.CartItem(nil), e.st.items...),
		SavedItems:        append([]domain.SavedItem(nil), e.st.saved...),
		GuestItems:        append([]domain.GuestItem(nil), e.st.guest...),
		Loading:           e.st.loading,
		Updating:          make(map[string]bool, len(e.st.updating)),
		TotalPrice:        e.st.totalPrice,
		ItemCount:         e.st.itemCount,
		LastSyncTime:      e.st.lastSync,
		HasPendingChanges: e.st.pending,
	}
	for k, v := range e.st.updating {
		out.Updating[k] = v
	}
	if e.st.err != nil {
		out.Err = e.st.err.Error()
	}
	return out
}

// ClearError drops the sticky error slot shown to the user.
func (e *Engine) ClearError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.err = nil
}

// IsInBasket reports whether the active list holds the product.
func (e *Engine) IsInBasket(productID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.mode == domain.ModeGuest {
		for _, gi := range e.st.guest {
			if gi.ProductID == productID {
				return true
			}
		}
		return false
	}
	for _, it := range e.st.items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// ItemByProductID finds the basket entry for a product in the active
// list. Guest entries are presented in cart item shape.
func (e *Engine) ItemByProductID(productID string) (domain.CartItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.mode == domain.ModeGuest {
		for _, gi := range e.st.guest {
			if gi.ProductID == productID {
				return domain.CartItem{
					ProductID: gi.ProductID,
					Quantity:  gi.Quantity,
					CreatedAt: gi.AddedAt,
					Product:   gi.Product,
				}, true
			}
		}
		return domain.CartItem{}, false
	}

	for _, it := range e.st.items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return domain.CartItem{}, false
}

// AddItem puts a product in the basket. Guest baskets merge by product
// id and persist locally; authenticated baskets create the item
// optimistically and confirm the durable id from the remote store.
func (e *Engine) AddItem(ctx context.Context, product domain.ProductSnapshot, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.mode == domain.ModeGuest {
		return e.addGuestLocked(product, quantity)
	}
	return e.addAuthenticatedLocked(ctx, product, quantity)
}

func (e *Engine) addGuestLocked(product domain.ProductSnapshot, quantity int) error {
	merged := false
	for i := range e.st.guest {
		if e.st.guest[i].ProductID == product.ID {
			e.st.guest[i].Quantity += quantity
			e.st.guest[i].Product = &product
			merged = true
			break
		}
	}
	if !merged {
		e.st.guest = append(e.st.guest, domain.GuestItem{
			ProductID: product.ID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
			Product:   &product,
		})
	}

	if err := e.persistGuestLocked(); err != nil {
		return err
	}
	e.recomputeLocked()
	return nil
}

func (e *Engine) persistGuestLocked() error {
	err := e.local.Write(localstore.Blob{Items: e.st.guest})
	if err != nil {
		e.st.err = err
		return fmt.Errorf("failed to persist guest basket: %w", err)
	}
	return nil
}

func (e *Engine) addAuthenticatedLocked(ctx context.Context, product domain.ProductSnapshot, quantity int) error {
	for _, it := range e.st.items {
		if it.ProductID == product.ID {
			return e.updateQuantityLocked(ctx, it.ID.Value, it.Quantity+quantity)
		}
	}

	// Show the item before the remote call; a failed create removes it
	// again so no partial state survives.
	item := domain.CartItem{
		ID:        domain.PendingID(),
		OwnerID:   e.st.owner,
		ProductID: product.ID,
		Quantity:  quantity,
		CreatedAt: time.Now(),
		Product:   &product,
	}
	e.st.items = append(e.st.items, item)
	e.st.pending = true
	e.recomputeLocked()

	id, err := e.store.CreateCartItem(ctx, remote.CartRecord{
		OwnerID:   e.st.owner,
		ProductID: product.ID,
		Quantity:  quantity,
		CreatedAt: item.CreatedAt,
	})
	if err != nil {
		e.dropItemLocked(item.ID.Value)
		e.st.pending = false
		e.recomputeLocked()
		e.st.err = err
		return fmt.Errorf("failed to add item: %w", err)
	}

	// Swap the placeholder for the durable id.
	for i := range e.st.items {
		if e.st.items[i].ID.Value == item.ID.Value {
			e.st.items[i].ID = domain.ConfirmedID(id)
			break
		}
	}
	e.st.pending = false
	e.publishLocked(ctx, domain.ChangeItemAdded, map[string]string{"product_id": product.ID})
	return nil
}

// UpdateQuantity changes an item's quantity. Anything below one means
// the item comes out of the basket.
func (e *Engine) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if quantity < 1 {
		return e.removeItemLocked(ctx, id)
	}
	return e.updateQuantityLocked(ctx, id, quantity)
}

func (e *Engine) updateQuantityLocked(ctx context.Context, id string, quantity int) error {
	if e.st.mode == domain.ModeGuest {
		return e.updateGuestQuantityLocked(id, quantity)
	}

	idx := e.indexOfItemLocked(id)
	if idx < 0 {
		return ErrItemNotFound
	}

	e.st.updating[id] = true
	defer delete(e.st.updating, id)

	e.st.items[idx].Quantity = quantity
	e.st.pending = true
	e.recomputeLocked()

	if err := e.store.UpdateCartItem(ctx, id, quantity); err != nil {
		// The optimistic edit is not undone in place; the remote store
		// decides what the basket looks like now.
		e.st.err = err
		if syncErr := e.resyncLocked(ctx); syncErr != nil {
			log.Printf("resync after failed update: %v", syncErr)
		}
		return fmt.Errorf("failed to update quantity: %w", err)
	}

	e.st.pending = false
	e.publishLocked(ctx, domain.ChangeItemUpdated, map[string]string{"item_id": id})
	return nil
}

// Guest items are keyed by product id.
func (e *Engine) updateGuestQuantityLocked(productID string, quantity int) error {
	for i := range e.st.guest {
		if e.st.guest[i].ProductID == productID {
			e.st.guest[i].Quantity = quantity
			if err := e.persistGuestLocked(); err != nil {
				return err
			}
			e.recomputeLocked()
			return nil
		}
	}
	return ErrItemNotFound
}

// RemoveItem takes an item out of the basket.
func (e *Engine) RemoveItem(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removeItemLocked(ctx, id)
}

func (e *Engine) removeItemLocked(ctx context.Context, id string) error {
	if e.st.mode == domain.ModeGuest {
		return e.removeGuestLocked(id)
	}

	idx := e.indexOfItemLocked(id)
	if idx < 0 {
		return ErrItemNotFound
	}

	e.st.updating[id] = true
	defer delete(e.st.updating, id)

	e.dropItemLocked(id)
	e.st.pending = true
	e.recomputeLocked()

	err := e.store.DeleteCartItem(ctx, id)
	if err != nil && !errorsIsNotFound(err) {
		e.st.err = err
		if syncErr := e.resyncLocked(ctx); syncErr != nil {
			log.Printf("resync after failed remove: %v", syncErr)
		}
		return fmt.Errorf("failed to remove item: %w", err)
	}

	e.st.pending = false
	e.publishLocked(ctx, domain.ChangeItemRemoved, map[string]string{"item_id": id})
	return nil
}

func (e *Engine) removeGuestLocked(productID string) error {
	for i := range e.st.guest {
		if e.st.guest[i].ProductID == productID {
			e.st.guest = append(e.st.guest[:i], e.st.guest[i+1:]...)
			if err := e.persistGuestLocked(); err != nil {
				return err
			}
			e.recomputeLocked()
			return nil
		}
	}
	return ErrItemNotFound
}

// ClearBasket empties the active basket: one atomic remote delete for
// authenticated owners, a local wipe for guests. In-memory lists reset
// only after the durable operation succeeds.
func (e *Engine) ClearBasket(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.mode == domain.ModeGuest {
		if err := e.local.Clear(); err != nil {
			e.st.err = err
			return fmt.Errorf("failed to clear guest basket: %w", err)
		}
		e.st.guest = nil
		e.recomputeLocked()
		return nil
	}

	if err := e.store.DeleteAllCartItems(ctx, e.st.owner); err != nil {
		e.st.err = err
		return fmt.Errorf("failed to clear basket: %w", err)
	}

	e.st.items = nil
	e.recomputeLocked()
	e.publishLocked(ctx, domain.ChangeCleared, nil)
	return nil
}

func (e *Engine) indexOfItemLocked(id string) int {
	for i := range e.st.items {
		if e.st.items[i].ID.Value == id {
			return i
		}
	}
	return -1
}

func (e *Engine) dropItemLocked(id string) {
	for i := range e.st.items {
		if e.st.items[i].ID.Value == id {
			e.st.items = append(e.st.items[:i], e.st.items[i+1:]...)
			return
		}
	}
}
