package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversOnlyToOwner(t *testing.T) {
	hub := NewHub(4)
	alice, cancelAlice := hub.Subscribe("alice")
	defer cancelAlice()
	bob, cancelBob := hub.Subscribe("bob")
	defer cancelBob()

	require.NoError(t, hub.Publish(context.Background(), Update{Kind: KindMessage, UserID: "alice", Message: "hi"}))

	select {
	case u := <-alice:
		assert.Equal(t, "hi", u.Message)
		assert.False(t, u.Timestamp.IsZero())
	default:
		t.Fatal("alice got nothing")
	}
	select {
	case u := <-bob:
		t.Fatalf("bob got %+v", u)
	default:
	}
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub(1)
	ch, cancel := hub.Subscribe("u")
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, hub.Publish(context.Background(), Update{UserID: "u"}))
	}
	assert.Len(t, ch, 1)
}

func TestHubCancelClosesAndForgets(t *testing.T) {
	hub := NewHub(1)
	ch, cancel := hub.Subscribe("u")
	assert.Equal(t, 1, hub.Subscribers("u"))

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Subscribers("u"))
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, Update) error { return f.err }

func TestFanoutJoinsErrors(t *testing.T) {
	hub := NewHub(1)
	ch, cancel := hub.Subscribe("u")
	defer cancel()
	boom := errors.New("broker down")

	err := Fanout{hub, nil, failingPublisher{err: boom}}.Publish(context.Background(), Update{UserID: "u"})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, ch, 1)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "user.abc", RoutingKey("abc"))
}
