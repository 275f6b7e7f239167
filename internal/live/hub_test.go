package live

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func waitEnded(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case <-sub.Ended():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sign-out")
	}
}

func assertNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestHub_PublishReachesOwnerOnly(t *testing.T) {
	hub := NewHub()
	alice, err := hub.Subscribe("alice")
	require.NoError(t, err)
	defer alice.Close()
	bob, err := hub.Subscribe("bob")
	require.NoError(t, err)
	defer bob.Close()

	require.NoError(t, hub.Publish(context.Background(), Event{OwnerID: "alice", Kind: KindChanged}))

	assert.Equal(t, Event{OwnerID: "alice", Kind: KindChanged}, receive(t, alice))
	assertNoEvent(t, bob)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe("alice")
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, hub.Publish(context.Background(), Event{OwnerID: "alice", Kind: KindChanged}))
	}

	receive(t, sub)
	assertNoEvent(t, sub)
}

func TestHub_CloseDetaches(t *testing.T) {
	hub := NewHub()
	first, err := hub.Subscribe("alice")
	require.NoError(t, err)
	second, err := hub.Subscribe("alice")
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Subscribers())

	first.Close()
	first.Close()
	assert.Equal(t, 1, hub.Subscribers())

	require.NoError(t, hub.Publish(context.Background(), Event{OwnerID: "alice", Kind: KindSignedOut}))
	waitEnded(t, second)
	select {
	case <-first.Ended():
		t.Fatal("closed subscription must not see the sign-out")
	default:
	}

	second.Close()
	assert.Zero(t, hub.Subscribers())
	assert.Empty(t, hub.owners)
}

func TestHub_InvalidInput(t *testing.T) {
	hub := NewHub()
	_, err := hub.Subscribe("  ")
	assert.ErrorIs(t, err, ErrInvalidOwner)
	assert.ErrorIs(t, hub.Publish(context.Background(), Event{}), ErrInvalidOwner)

	var nilHub *Hub
	_, err = nilHub.Subscribe("alice")
	assert.ErrorIs(t, err, ErrHubUnavailable)
	assert.Zero(t, nilHub.Subscribers())
	assert.NoError(t, hub.Publish(context.Background(), Event{OwnerID: "nobody", Kind: KindChanged}))
}

func TestRedisBroker_RelayIntoHub(t *testing.T) {
	hub := NewHub()
	broker := &RedisBroker{channel: "test", hub: hub}
	sub, err := hub.Subscribe("alice")
	require.NoError(t, err)
	defer sub.Close()

	payload, err := json.Marshal(Event{OwnerID: "alice", Kind: KindChanged})
	require.NoError(t, err)

	broker.relay(context.Background(), "not json")
	assertNoEvent(t, sub)

	broker.relay(context.Background(), string(payload))
	assert.Equal(t, KindChanged, receive(t, sub).Kind)
}

func TestNewRedisBroker_Validation(t *testing.T) {
	_, err := NewRedisBroker("redis://localhost:6379/0", "", NewHub())
	assert.Error(t, err)

	_, err = NewRedisBroker("::not a url", "drinklog:changes", NewHub())
	assert.Error(t, err)

	_, err = NewRedisBroker("redis://localhost:6379/0", "drinklog:changes", nil)
	assert.ErrorIs(t, err, ErrHubUnavailable)

	broker, err := NewRedisBroker("redis://localhost:6379/0", "drinklog:changes", NewHub())
	require.NoError(t, err)
	assert.NoError(t, broker.Close())
}

func TestHub_SignOutWithPendingChange(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe("alice")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, hub.Publish(context.Background(), Event{OwnerID: "alice", Kind: KindChanged}))
	require.NoError(t, hub.Publish(context.Background(), Event{OwnerID: "alice", Kind: KindSignedOut}))
	require.NoError(t, hub.Publish(context.Background(), Event{OwnerID: "alice", Kind: KindSignedOut}))

	waitEnded(t, sub)
	assert.Equal(t, KindChanged, receive(t, sub).Kind)
	assertNoEvent(t, sub)
}

func TestHub_SignOutSurvivesConcurrentChanges(t *testing.T) {
	ctx := context.Background()
	for round := 0; round < 2000; round++ {
		hub := NewHub()
		sub, err := hub.Subscribe("alice")
		require.NoError(t, err)
		require.NoError(t, hub.Publish(ctx, Event{OwnerID: "alice", Kind: KindChanged}))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = hub.Publish(ctx, Event{OwnerID: "alice", Kind: KindChanged})
			}
		}()
		go func() {
			defer wg.Done()
			_ = hub.Publish(ctx, Event{OwnerID: "alice", Kind: KindSignedOut})
		}()
		wg.Wait()

		select {
		case <-sub.Ended():
		default:
			t.Fatalf("sign-out lost in round %d", round)
		}
		sub.Close()
	}
}
