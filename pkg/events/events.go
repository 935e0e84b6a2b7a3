package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventSessionCreated  EventType = "session.created"
	EventSessionJoined   EventType = "session.joined"
	EventSessionResumed  EventType = "session.resumed"
	EventSessionUpdated  EventType = "session.updated"
	EventSessionEnded    EventType = "session.ended"
	EventSessionLeft     EventType = "session.left"
	EventPlaylistUpdated EventType = "playlist.updated"
	EventPlaylistAdvance EventType = "playlist.advanced"
	EventRecsUpdated     EventType = "recommendations.updated"
	EventRecsRefetchFail EventType = "recommendations.refetch_failed"
	EventGuestJoined     EventType = "guest.joined"
	EventGuestRemoved    EventType = "guest.removed"
	EventChannelUp       EventType = "channel.connected"
	EventChannelDown     EventType = "channel.disconnected"
	EventChannelGaveUp   EventType = "channel.exhausted"
	EventUnknownMessage  EventType = "message.unknown"
)

// Event represents a client-side session event
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Message   string
	Metadata  map[string]string
}

// Publisher is the write side of the broker
type Publisher interface {
	Publish(event *Event)
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Broker manages event subscriptions and distribution
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100), // Buffer up to 100 events
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker
func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50) // Buffer per subscriber
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// Publish publishes an event to all subscribers. It never blocks once the
// broker is stopped.
func (b *Broker) Publish(event *Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Discard is a Publisher that drops every event
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(*Event) {}
