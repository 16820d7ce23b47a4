package basket

import (
	"context"
	"fmt"
	"sync"

	"github.com/kaniobed28/campus-sell/basket-service/internal/broadcast"
	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
	"github.com/kaniobed28/campus-sell/basket-service/internal/remote"
)

type mockStore struct {
	mu     sync.Mutex
	cart   map[string]remote.CartRecord
	saved  map[string]remote.SavedRecord
	nextID int

	failCreate bool
	failUpdate bool
	failDelete bool
	failList   bool
	failCommit bool

	listCalls int
}

func newMockStore() *mockStore {
	return &mockStore{
		cart:  make(map[string]remote.CartRecord),
		saved: make(map[string]remote.SavedRecord),
	}
}

func (m *mockStore) newID() string {
	m.nextID++
	return fmt.Sprintf("srv-%d", m.nextID)
}

func (m *mockStore) CreateCartItem(_ context.Context, rec remote.CartRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return "", fmt.Errorf("store unavailable")
	}
	rec.ID = m.newID()
	m.cart[rec.ID] = rec
	return rec.ID, nil
}

func (m *mockStore) UpdateCartItem(_ context.Context, id string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate {
		return fmt.Errorf("store unavailable")
	}
	rec, ok := m.cart[id]
	if !ok {
		return remote.ErrRecordNotFound
	}
	rec.Quantity = quantity
	m.cart[id] = rec
	return nil
}

func (m *mockStore) DeleteCartItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return fmt.Errorf("store unavailable")
	}
	if _, ok := m.cart[id]; !ok {
		return remote.ErrRecordNotFound
	}
	delete(m.cart, id)
	return nil
}

func (m *mockStore) ListCartItems(_ context.Context, ownerID string) ([]remote.CartRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.failList {
		return nil, fmt.Errorf("store unavailable")
	}
	var recs []remote.CartRecord
	for _, rec := range m.cart {
		if rec.OwnerID == ownerID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (m *mockStore) CreateSavedItem(_ context.Context, rec remote.SavedRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return "", fmt.Errorf("store unavailable")
	}
	rec.ID = m.newID()
	m.saved[rec.ID] = rec
	return rec.ID, nil
}

func (m *mockStore) DeleteSavedItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return fmt.Errorf("store unavailable")
	}
	if _, ok := m.saved[id]; !ok {
		return remote.ErrRecordNotFound
	}
	delete(m.saved, id)
	return nil
}

func (m *mockStore) ListSavedItems(_ context.Context, ownerID string) ([]remote.SavedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList {
		return nil, fmt.Errorf("store unavailable")
	}
	var recs []remote.SavedRecord
	for _, rec := range m.saved {
		if rec.OwnerID == ownerID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (m *mockStore) DeleteAllCartItems(_ context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return fmt.Errorf("store unavailable")
	}
	for id, rec := range m.cart {
		if rec.OwnerID == ownerID {
			delete(m.cart, id)
		}
	}
	return nil
}

func (m *mockStore) Batch() remote.Batch {
	return &mockBatch{store: m}
}

type mockBatch struct {
	store *mockStore
	ops   []func()
}

func (b *mockBatch) SetCartItem(rec remote.CartRecord) string {
	b.store.mu.Lock()
	rec.ID = b.store.newID()
	b.store.mu.Unlock()

	b.ops = append(b.ops, func() {
		b.store.cart[rec.ID] = rec
	})
	return rec.ID
}

func (b *mockBatch) DeleteCartItem(id string) {
	b.ops = append(b.ops, func() {
		delete(b.store.cart, id)
	})
}

func (b *mockBatch) SetSavedItem(rec remote.SavedRecord) string {
	b.store.mu.Lock()
	rec.ID = b.store.newID()
	b.store.mu.Unlock()

	b.ops = append(b.ops, func() {
		b.store.saved[rec.ID] = rec
	})
	return rec.ID
}

func (b *mockBatch) DeleteSavedItem(id string) {
	b.ops = append(b.ops, func() {
		delete(b.store.saved, id)
	})
}

func (b *mockBatch) Commit(context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	if b.store.failCommit {
		return fmt.Errorf("transaction aborted")
	}
	for _, op := range b.ops {
		op()
	}
	return nil
}

type mockLookup struct {
	mu       sync.Mutex
	products map[string]domain.ProductSnapshot
	err      error
}

func newMockLookup(products ...domain.ProductSnapshot) *mockLookup {
	m := &mockLookup{products: make(map[string]domain.ProductSnapshot)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockLookup) GetMany(_ context.Context, productIDs []string) (map[string]domain.ProductSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]domain.ProductSnapshot)
	for _, id := range productIDs {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type recordBus struct {
	mu     sync.Mutex
	events []domain.SyncEvent
}

func (b *recordBus) Publish(_ context.Context, ev domain.SyncEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *recordBus) Subscribe(context.Context, broadcast.Handler) {}

func (b *recordBus) Close() error { return nil }

func (b *recordBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
