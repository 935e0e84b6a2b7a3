/*
Package types defines the data model shared by every Cadence package.

A listening session is a single aggregate (Session) that three independent
realtime channels keep up to date:

	┌──────────────────── SESSION AGGREGATE ───────────────────┐
	│                                                            │
	│  session channel  ──►  id, name, host, guests, artifacts  │
	│  playlist channel ──►  Playlist (played, current, queued) │
	│  recs channel     ──►  Recommendations + voting window    │
	│                                                            │
	│  IsRunning        ──►  client-known, never on the wire    │
	└────────────────────────────────────────────────────────┘

# Core Types

  - Song: immutable track record with audio features
  - Recommendation: a Song plus the IDs of the guests that voted for it
  - Playlist: played history, optional current song, queue
  - RecommendationList: a complete recommendation set and the start of the
    current voting window
  - Guest: a participant in a host's session
  - Artifacts: end-of-session summary
  - Session: the aggregate itself
  - SessionDraft: payload for creating a session

# Conventions

Wire encoding is JSON with camelCase keys. Optional fields are pointers so
that an omitted field decodes to nil and can be told apart from an empty
value. Session.Clone returns a deep copy suitable for handing to renderers.
*/
package types
