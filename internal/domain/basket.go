package domain

import (
	"time"

	"github.com/google/uuid"
)

// Mode says which item list is authoritative for the basket.
type Mode string

const (
	ModeGuest         Mode = "guest"
	ModeAuthenticated Mode = "authenticated"
)

// ItemID tags a cart item id as either a client-generated placeholder
// (optimistic create still in flight) or a durable id assigned by the
// remote store. Confirming a create swaps the whole value, so there is
// no half-reconciled state.
type ItemID struct {
	Value   string
	Pending bool
}

func PendingID() ItemID {
	return ItemID{Value: uuid.NewString(), Pending: true}
}

func ConfirmedID(value string) ItemID {
	return ItemID{Value: value}
}

type CartItem struct {
	ID        ItemID
	OwnerID   string
	ProductID string
	Quantity  int
	CreatedAt time.Time

	// Product is the joined snapshot from the last lookup, nil until then.
	// Unavailable marks items whose product could not be resolved; they
	// stay in the list but are excluded from displayed totals.
	Product     *ProductSnapshot
	Unavailable bool
}

type SavedItem struct {
	ID        string
	OwnerID   string
	ProductID string
	SavedAt   time.Time

	Product     *ProductSnapshot
	Unavailable bool
}

// GuestItem lives only on the device. ProductID is the stable key:
// adding the same product twice merges quantities.
type GuestItem struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	AddedAt   time.Time        `json:"added_at"`
	Product   *ProductSnapshot `json:"product,omitempty"`
}

// BasketState is a point-in-time copy of the engine's aggregate state.
// TotalPrice and ItemCount are derived from whichever list is active for
// Mode; callers never mutate them.
type BasketState struct {
	Mode       Mode
	Items      []CartItem
	SavedItems []SavedItem
	GuestItems []GuestItem

	Loading  bool
	Updating map[string]bool
	Err      string

	TotalPrice        float64
	ItemCount         int
	LastSyncTime      time.Time
	HasPendingChanges bool
}
