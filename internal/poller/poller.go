package poller

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/kaniobed28/campus-sell/basket-service/internal/basket"
	"github.com/kaniobed28/campus-sell/basket-service/internal/remote"
)

// Poller consumes checkout completions. A completed checkout consumes
// the basket: the owner's cart rows go away and, if the owner is signed
// in on this device, the engine re-syncs so the UI empties.
type Poller struct {
	store  remote.Store
	engine *basket.Engine
	reader *kafka.Reader
}

func NewPoller(store remote.Store, engine *basket.Engine, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "checkout-outbox",
		GroupID:  "basket-service-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{store, engine, reader}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.consumeCheckout(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		log.Printf("error closing reader: %v", err)
	}
}

func (p *Poller) consumeCheckout(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("error reading message: %v", err)
		}
		return
	}

	var payload map[string]interface{}
	if errUnmarshal := json.Unmarshal(m.Value, &payload); errUnmarshal != nil {
		log.Printf("error parsing message: %v", errUnmarshal)
		return
	}
	ownerID, ok := payload["user_id"].(string)
	if !ok {
		log.Println("missing or invalid user_id")
		return
	}

	if errDelete := p.store.DeleteAllCartItems(ctx, ownerID); errDelete != nil {
		log.Printf("failed to clear cart after checkout: %v", errDelete)
		return
	}

	if errSync := p.engine.Sync(ctx); errSync != nil {
		log.Printf("failed to sync after checkout: %v", errSync)
	}
}
