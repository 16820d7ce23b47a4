package broadcast

import (
	"context"

	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
)

// Handler receives sync events published by sibling device agents.
type Handler func(domain.SyncEvent)

// Broadcaster is a fire-and-forget notification channel between every
// agent of the same browser profile. Events carry no authoritative data;
// receivers react by re-syncing against the remote store.
type Broadcaster interface {
	Publish(ctx context.Context, ev domain.SyncEvent) error
	Subscribe(ctx context.Context, h Handler)
	Close() error
}
