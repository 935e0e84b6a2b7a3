/*
Package events provides an in-memory event broker for Cadence session events.

The session controller, the merger and each realtime channel publish what
happens to the session (guest joined, playlist advanced, channel gave up
reconnecting, ...) to a Broker. Anything that wants to react without being
wired into the merge path, such as the CLI watch command, subscribes.

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                            │
	│  Publisher → Event Channel (buffer: 100)                  │
	│       ↓                                                    │
	│  Broadcast Loop                                            │
	│       ↓                                                    │
	│  Subscriber Channels (buffer: 50 each)                     │
	│                                                            │
	│  Session:  session.created, session.joined,                │
	│            session.resumed, session.updated,               │
	│            session.ended, session.left                     │
	│  Playlist: playlist.updated, playlist.advanced             │
	│  Recs:     recommendations.updated,                        │
	│            recommendations.refetch_failed                  │
	│  Roster:   guest.joined, guest.removed                     │
	│  Channel:  channel.connected, channel.disconnected,        │
	│            channel.exhausted, message.unknown              │
	└────────────────────────────────────────────────────────┘

Delivery is best effort. A subscriber whose buffer is full misses events;
the broker never blocks the merge path on a slow reader. Events get a UUID
and a timestamp when the publisher leaves them empty.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	for ev := range sub {
		fmt.Printf("%s %s\n", ev.Type, ev.Message)
	}
*/
package events
