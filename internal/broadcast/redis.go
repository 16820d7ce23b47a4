package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
)

const syncChannel = "basket:sync"

// RedisBroadcaster fans sync events out over a Redis pub/sub channel.
type RedisBroadcaster struct {
	client *redis.Client
	pubsub *redis.PubSub
}

func NewRedisBroadcaster(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

func (r *RedisBroadcaster) Publish(ctx context.Context, ev domain.SyncEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal sync event: %w", err)
	}

	if err := r.client.Publish(ctx, syncChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish sync event: %w", err)
	}
	return nil
}

func (r *RedisBroadcaster) Subscribe(ctx context.Context, h Handler) {
	r.pubsub = r.client.Subscribe(ctx, syncChannel)

	go func() {
		for msg := range r.pubsub.Channel() {
			var ev domain.SyncEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("dropping malformed sync event: %v", err)
				continue
			}
			h(ev)
		}
	}()
}

func (r *RedisBroadcaster) Close() error {
	if r.pubsub != nil {
		return r.pubsub.Close()
	}
	return nil
}
