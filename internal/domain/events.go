package domain

import "time"

// ChangeType labels what kind of mutation a SyncEvent announces.
type ChangeType string

const (
	ChangeItemAdded   ChangeType = "item_added"
	ChangeItemUpdated ChangeType = "item_updated"
	ChangeItemRemoved ChangeType = "item_removed"
	ChangeItemSaved   ChangeType = "item_saved"
	ChangeItemMoved   ChangeType = "item_moved"
	ChangeCleared     ChangeType = "cleared"
	ChangeMigrated    ChangeType = "migrated"
)

// SyncEvent is the cross-process notification published after an
// authenticated mutation. It is a signal, not a data channel: receivers
// re-sync against the remote store instead of trusting Data.
type SyncEvent struct {
	OwnerID   string            `json:"owner_id"`
	Change    ChangeType        `json:"change_type"`
	Timestamp time.Time         `json:"timestamp"`
	Data      map[string]string `json:"data,omitempty"`
}
