package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerFansOutToAllSubscribers(t *testing.T) {
	b := NewBroker[int]()
	b.Start()
	defer b.Stop()

	s1 := b.Subscribe()
	s2 := b.Subscribe()
	require.Equal(t, 2, b.SubscriberCount())

	b.Publish(42)

	for _, sub := range []chan int{s1, s2} {
		select {
		case v := <-sub:
			assert.Equal(t, 42, v)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the value")
		}
	}
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker[int]()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	b.Unsubscribe(sub)

	_, open := <-sub
	assert.False(t, open)
	assert.Zero(t, b.SubscriberCount())

	// Double unsubscribe is a no-op
	b.Unsubscribe(sub)
}

func TestBrokerStopClosesSubscribers(t *testing.T) {
	b := NewBroker[string]()
	b.Start()

	sub := b.Subscribe()
	b.Stop()

	_, open := <-sub
	assert.False(t, open)

	// Publish after stop must not block
	done := make(chan struct{})
	go func() {
		b.Publish("late")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked after stop")
	}
}

func TestBrokerSkipsFullSubscriber(t *testing.T) {
	b := NewBroker[int]()

	slow := b.Subscribe()
	fast := b.Subscribe()

	// Fill the slow subscriber's buffer so the next broadcast must skip it
	for i := 0; i < cap(slow); i++ {
		slow <- i
	}
	b.broadcast(99)

	assert.Len(t, slow, cap(slow))
	select {
	case v := <-fast:
		assert.Equal(t, 99, v)
	default:
		t.Fatal("fast subscriber did not receive the value")
	}
}

func TestEventBrokerStampsTimestamp(t *testing.T) {
	b := NewEventBroker()
	defer b.Stop()

	sub := b.Subscribe()

	b.Publish(&Event{Type: EventJobSubmitted, Message: "job j1 submitted"})

	select {
	case ev := <-sub:
		assert.Equal(t, EventJobSubmitted, ev.Type)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	// An explicit timestamp is preserved
	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b.Publish(&Event{Type: EventJobCompleted, Timestamp: stamp})
	select {
	case ev := <-sub:
		assert.Equal(t, stamp, ev.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}
