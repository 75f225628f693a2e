package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobpilot/internal/types"
)

func TestBus_UserTargeting(t *testing.T) {
	bus := NewBus(nil, "")
	alice := bus.Subscribe(1)
	bob := bus.Subscribe(2)
	firehose := bus.SubscribeAll()
	defer alice.Unsubscribe()
	defer bob.Unsubscribe()
	defer firehose.Unsubscribe()

	bus.Publish(context.Background(), types.BusEvent{
		Type:   types.BusApplicationUpdate,
		UserID: 1,
	})

	select {
	case ev := <-alice.C:
		assert.Equal(t, types.BusApplicationUpdate, ev.Type)
		assert.False(t, ev.CreatedAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("alice did not receive her event")
	}

	select {
	case ev := <-firehose.C:
		assert.Equal(t, int64(1), ev.UserID)
	case <-time.After(time.Second):
		t.Fatal("firehose did not receive the event")
	}

	select {
	case <-bob.C:
		t.Fatal("bob received another user's event")
	default:
	}
}

func TestBus_BroadcastReachesEveryone(t *testing.T) {
	bus := NewBus(nil, "")
	alice := bus.Subscribe(1)
	bob := bus.Subscribe(2)
	defer alice.Unsubscribe()
	defer bob.Unsubscribe()

	bus.Publish(context.Background(), types.BusEvent{Type: types.BusJobCreated})

	for _, sub := range []*Subscription{alice, bob} {
		select {
		case ev := <-sub.C:
			assert.Equal(t, types.BusJobCreated, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("broadcast not delivered")
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil, "")
	sub := bus.Subscribe(1)
	require.Equal(t, 1, bus.SubscriberCount())

	sub.Unsubscribe()
	assert.Equal(t, 0, bus.SubscriberCount())

	// Channel is closed; a second call must not panic.
	_, open := <-sub.C
	assert.False(t, open)
	sub.Unsubscribe()
}

func TestBus_SlowSubscriberDropsEvents(t *testing.T) {
	bus := NewBus(nil, "")
	sub := bus.Subscribe(1)
	defer sub.Unsubscribe()

	// Overfill the buffer; publishing must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+10; i++ {
			bus.Publish(context.Background(), types.BusEvent{Type: types.BusJobCreated, UserID: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	assert.Len(t, sub.ch, subscriberBuffer)

	// The gap is flagged so the consumer knows to resync.
	assert.True(t, sub.Lapsed())
	sub.ClearLapsed()
	assert.False(t, sub.Lapsed())
}

func TestBus_FastSubscriberNeverLapses(t *testing.T) {
	bus := NewBus(nil, "")
	sub := bus.Subscribe(1)
	defer sub.Unsubscribe()

	bus.Publish(context.Background(), types.BusEvent{Type: types.BusJobCreated, UserID: 1})
	<-sub.C
	assert.False(t, sub.Lapsed())
}
