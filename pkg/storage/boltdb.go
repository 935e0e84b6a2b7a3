package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketClient = []byte("client")

	// Keys
	keySessionID = []byte("session_id")
)

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store in dataDir
func NewBoltStore(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "cadence.db")

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketClient); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketClient, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) SaveSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session id is empty")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketClient).Put(keySessionID, []byte(id))
	})
}

func (s *BoltStore) LoadSessionID() (string, error) {
	var id string
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketClient).Get(keySessionID)
		if data == nil {
			return ErrNotFound
		}
		id = string(data) // copy out, data is only valid inside the tx
		return nil
	})
	return id, err
}

func (s *BoltStore) ClearSessionID() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketClient).Delete(keySessionID)
	})
}
