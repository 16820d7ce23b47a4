package identity

import (
	"log"
	"sync"
)

// Event announces an owner change. OwnerID is empty after sign-out.
type Event struct {
	OwnerID  string
	Previous string
}

// Provider reports the identity the basket belongs to right now.
type Provider interface {
	CurrentOwnerID() string
	Subscribe() <-chan Event
}

// Broker is the in-process Provider. The HTTP session endpoints drive it:
// the marketplace web app authenticates elsewhere and forwards the owner
// id to this device agent.
type Broker struct {
	mu      sync.Mutex
	current string
	subs    []chan Event
}

func NewBroker() *Broker {
	return &Broker{}
}

func (b *Broker) CurrentOwnerID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Broker) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 16)
	b.subs = append(b.subs, ch)
	return ch
}

// SignIn sets the current owner and notifies subscribers. Setting the
// same owner again is a no-op.
func (b *Broker) SignIn(ownerID string) {
	b.publish(ownerID)
}

// SignOut clears the current owner.
func (b *Broker) SignOut() {
	b.publish("")
}

func (b *Broker) publish(ownerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == ownerID {
		return
	}
	ev := Event{OwnerID: ownerID, Previous: b.current}
	b.current = ownerID

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("identity subscriber too slow, dropping event for owner %q", ownerID)
		}
	}
}
