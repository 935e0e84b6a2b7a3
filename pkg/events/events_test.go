package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	assert.Equal(t, 2, b.SubscriberCount())

	b.Publish(&Event{Type: EventGuestJoined, Metadata: map[string]string{"guest_id": "g1"}})

	for _, sub := range []Subscriber{sub1, sub2} {
		select {
		case ev := <-sub:
			require.NotNil(t, ev)
			assert.Equal(t, EventGuestJoined, ev.Type)
			assert.NotEmpty(t, ev.ID)
			assert.False(t, ev.Timestamp.IsZero())
			assert.Equal(t, "g1", ev.Metadata["guest_id"])
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	_, open := <-sub
	assert.False(t, open)

	// Second unsubscribe must not panic on the closed channel
	assert.NotPanics(t, func() { b.Unsubscribe(sub) })
}

func TestBrokerPublishAfterStopDoesNotBlock(t *testing.T) {
	b := NewBroker()
	b.Stop()
	b.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			b.Publish(&Event{Type: EventChannelDown})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after Stop")
	}
}

func TestBrokerSlowSubscriberDropsEvents(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()

	for i := 0; i < 60; i++ {
		b.broadcast(&Event{Type: EventRecsUpdated})
	}
	assert.Len(t, sub, 50)
}
