/*
Package channel implements the realtime WebSocket channels of a Cadence
session.

Every session is followed over three independent sockets, one per slice of
state:

	ws://<host>/sessions/<id>         ──► session updates (or legacy roster text)
	ws://<host>/playlist/<id>         ──► playlist updates
	ws://<host>/recommendations/<id>  ──► recommendation list updates

# Reconnect state machine

Each Connection runs this loop on its own:

	        Connect
	           │
	           ▼
	   ┌──────────────┐  open   ┌──────────┐
	   │  connecting  │ ──────► │   open   │──┐ messages ─► Handler
	   └──────────────┘         └──────────┘  │ (in order)
	       ▲    │ dial failed        │ close  │
	       │    ▼                    ▼        │
	       │  ┌───────────────────────────┐   │
	       │  │ code == 1000 ? ─► closed  │   │
	       │  │ attempts < max ? ─► wait  │   │
	       │  │ otherwise ─► exhausted    │   │
	       │  └───────────────────────────┘   │
	       │            │ timer                │
	       └────────────┘                      │

The wait starts at 2s and doubles after every attempt (2s, 4s, 8s, ...).
A successful open resets both the attempt counter and the wait. Close
sends a 1000 close frame, cancels any pending timer and suppresses every
later reconnect. Exhaustion is logged, counted in metrics, published as a
channel.exhausted event and marks the channel unhealthy; only a new
Connect revives it.

# Decoding

Frames are decoded before they reach the handler. JSON is the default
codec; the legacy codec parses the free-text roster sentences some servers
still emit on the session channel. Anything a decoder cannot parse is
delivered as a KindUnknown message so handlers can log and ignore it.

# Concurrency

Each Connection has one reader goroutine that invokes the handler
synchronously, so messages of one channel are handled in arrival order.
Ordering across channels is not defined.
*/
package channel
