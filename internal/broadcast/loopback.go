package broadcast

import (
	"context"
	"sync"

	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
)

// Loopback delivers events to subscribers in the same process. Used when
// no Redis is configured, and by tests.
type Loopback struct {
	mu       sync.Mutex
	handlers []Handler
	closed   bool
}

func NewLoopback() *Loopback {
	return &Loopback{}
}

func (l *Loopback) Publish(_ context.Context, ev domain.SyncEvent) error {
	l.mu.Lock()
	handlers := make([]Handler, len(l.handlers))
	copy(handlers, l.handlers)
	closed := l.closed
	l.mu.Unlock()

	if closed {
		return nil
	}
	// Deliver off the caller's goroutine, like a real pub/sub would.
	for _, h := range handlers {
		go h(ev)
	}
	return nil
}

func (l *Loopback) Subscribe(_ context.Context, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.handlers = nil
	return nil
}
