package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_SignInNotifiesSubscribers(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()

	b.SignIn("user-1")

	select {
	case ev := <-ch:
		assert.Equal(t, "user-1", ev.OwnerID)
		assert.Empty(t, ev.Previous)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	assert.Equal(t, "user-1", b.CurrentOwnerID())
}

func TestBroker_SignOutCarriesPreviousOwner(t *testing.T) {
	b := NewBroker()
	b.SignIn("user-1")
	ch := b.Subscribe()

	b.SignOut()

	select {
	case ev := <-ch:
		assert.Empty(t, ev.OwnerID)
		assert.Equal(t, "user-1", ev.Previous)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	assert.Empty(t, b.CurrentOwnerID())
}

func TestBroker_RepeatSignInIsNoOp(t *testing.T) {
	b := NewBroker()
	b.SignIn("user-1")
	ch := b.Subscribe()

	b.SignIn("user-1")

	select {
	case <-ch:
		t.Fatal("unchanged identity must not publish")
	case <-time.After(50 * time.Millisecond):
	}
	require.Equal(t, "user-1", b.CurrentOwnerID())
}
