package storage

import (
	"errors"
)

// ErrNotFound is returned when no session identifier has been persisted
var ErrNotFound = errors.New("no persisted session")

// Store persists the identifier of the session to resume after a restart.
// Only one identifier is kept; saving replaces it.
type Store interface {
	SaveSessionID(id string) error
	LoadSessionID() (string, error)
	ClearSessionID() error

	// Utility
	Close() error
}
