package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var historyBucket = []byte("conversations")

// BoltStore persists histories in a single bbolt file, one JSON array per channel.
type BoltStore struct {
	db    *bolt.DB
	limit int
}

// OpenBoltStore opens (creating if needed) the database at path.
func OpenBoltStore(path string, limit int) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("unable to create %s: %w", dir, err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("unable to open bolt store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(historyBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to create bucket: %w", err)
	}

	return &BoltStore{db: db, limit: limit}, nil
}

// History returns the channel's records, oldest first.
func (s *BoltStore) History(_ context.Context, channelID string) ([]Record, error) {
	records := []Record{}
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		records, err = decodeRecords(tx.Bucket(historyBucket).Get([]byte(channelID)))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("unable to read history: %w", err)
	}
	return records, nil
}

// Append adds rec and trims the stored array in the same transaction.
func (s *BoltStore) Append(_ context.Context, channelID string, rec Record) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(historyBucket)
		records, err := decodeRecords(b.Get([]byte(channelID)))
		if err != nil {
			return err
		}

		records = Trim(append(records, rec), s.limit)

		data, err := json.Marshal(records)
		if err != nil {
			return err
		}
		return b.Put([]byte(channelID), data)
	})
	if err != nil {
		return fmt.Errorf("unable to append record: %w", err)
	}
	return nil
}

// Clear removes the channel's key.
func (s *BoltStore) Clear(_ context.Context, channelID string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).Delete([]byte(channelID))
	})
	if err != nil {
		return fmt.Errorf("unable to clear history: %w", err)
	}
	return nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func decodeRecords(data []byte) ([]Record, error) {
	records := []Record{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("malformed history: %w", err)
	}
	for _, r := range records {
		if _, err := ParseRole(string(r.Role)); err != nil {
			return nil, err
		}
	}
	return records, nil
}
