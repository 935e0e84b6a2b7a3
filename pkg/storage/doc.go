/*
Package storage persists the identifier of the current session so a client
can resume it after a restart.

BoltStore keeps it in <dataDir>/cadence.db, bucket "client", key
"session_id". MemoryStore is the in-process variant used by tests and by
runs that should not leave anything behind.

The identifier is written when a session is initialized and removed when a
resume fails or the client leaves. Ending a session never writes it.
*/
package storage
