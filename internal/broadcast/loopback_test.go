package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
)

func TestLoopback_DeliversToAllSubscribers(t *testing.T) {
	bus := NewLoopback()
	ctx := context.Background()

	var mu sync.Mutex
	var got []string
	for i := 0; i < 3; i++ {
		bus.Subscribe(ctx, func(ev domain.SyncEvent) {
			mu.Lock()
			got = append(got, ev.OwnerID)
			mu.Unlock()
		})
	}

	require.NoError(t, bus.Publish(ctx, domain.SyncEvent{
		OwnerID:   "user-1",
		Change:    domain.ChangeItemAdded,
		Timestamp: time.Now(),
	}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 10*time.Millisecond)
}

func TestLoopback_ClosedBusDropsEvents(t *testing.T) {
	bus := NewLoopback()
	ctx := context.Background()

	delivered := make(chan struct{}, 1)
	bus.Subscribe(ctx, func(domain.SyncEvent) { delivered <- struct{}{} })
	require.NoError(t, bus.Close())

	require.NoError(t, bus.Publish(ctx, domain.SyncEvent{OwnerID: "user-1"}))

	select {
	case <-delivered:
		t.Fatal("closed bus must not deliver")
	case <-time.After(50 * time.Millisecond):
	}
}
