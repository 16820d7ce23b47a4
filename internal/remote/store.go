package remote

import (
	"context"
	"errors"
	"time"
)

var ErrRecordNotFound = errors.New("record not found")

// CartRecord is a durable cart item row as the remote store holds it.
type CartRecord struct {
	ID        string
	OwnerID   string
	ProductID string
	Quantity  int
	CreatedAt time.Time
}

// SavedRecord is a saved-for-later row.
type SavedRecord struct {
	ID        string
	OwnerID   string
	ProductID string
	SavedAt   time.Time
}

// Store defines the durable per-owner cart and saved-item collections.
// Consumers define this interface, not the MongoDB implementation.
type Store interface {
	CreateCartItem(ctx context.Context, rec CartRecord) (string, error)
	UpdateCartItem(ctx context.Context, id string, quantity int) error
	DeleteCartItem(ctx context.Context, id string) error
	ListCartItems(ctx context.Context, ownerID string) ([]CartRecord, error)

	CreateSavedItem(ctx context.Context, rec SavedRecord) (string, error)
	DeleteSavedItem(ctx context.Context, id string) error
	ListSavedItems(ctx context.Context, ownerID string) ([]SavedRecord, error)

	// DeleteAllCartItems drops every cart row for one owner in a single
	// atomic command.
	DeleteAllCartItems(ctx context.Context, ownerID string) error

	// Batch stages multi-record changes and commits them atomically.
	Batch() Batch
}

// Batch accumulates writes across both collections. Set operations assign
// the durable id up front and return it; nothing touches the store until
// Commit, which applies every staged op or none of them.
type Batch interface {
	SetCartItem(rec CartRecord) string
	DeleteCartItem(id string)
	SetSavedItem(rec SavedRecord) string
	DeleteSavedItem(id string)
	Commit(ctx context.Context) error
}
