/*
Package session owns the merged session aggregate and its lifecycle.

The Controller is the single writer of the aggregate. It is fed by the REST
API for explicit transitions and by the three realtime channels for
everything else:

	           REST (create/join/fetch/end/leave/vote)
	                        │
	                        ▼
	┌───────────────────────────────────────────────┐
	│                  Controller                    │
	│                                                │
	│   state: absent ──► active ──► ended          │
	│                                                │
	│   session channel ──► mergeSession            │
	│   playlist channel ──► mergePlaylist ──┐      │
	│   recs channel ──► mergeRecommendations│      │
	│                         ▲              │      │
	│                         └── refetch ◄──┘      │
	└───────────────────────────────────────────────┘
	                        │
	                        ▼
	              Snapshot() for renderers

# Merge rules

  - Session messages overlay the aggregate. IsRunning is never taken from
    the wire; a nil playlist or empty recommendation list on the message
    keeps the current one.
  - Playlist messages replace the playlist. When the current song changes
    the recommendations are cleared and one refetch starts in the
    background. Only the latest refetch may apply its result.
  - Recommendation messages, refetch results and vote responses replace
    the recommendation list and voting window wholesale.
  - Legacy roster events add or remove a single guest.

Messages arriving while the session is not active are dropped, so a late
frame cannot bring an ended session back to life.

# Persistence

The session id is saved to the resume store when a session becomes active
and cleared when a fetch fails, the session ends or the guest leaves.
*/
package session
