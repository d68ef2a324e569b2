// Package cursor persists the log read position and the entries seen so far
// in a local Bolt database. The external log only hands out a bounded window
// of recent entries; keeping every entry we have ever seen, keyed by its
// sequence number, is the extension point that lets the visible window
// survive restarts and grow past a single fetch.
package cursor

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/devyuvraj7/telegram-drive/internal/transport"
)

var (
	metaBucket    = []byte("meta")    // read offset and other scalars
	entriesBucket = []byte("entries") // sequence number -> raw entry JSON
	offsetKey     = []byte("offset")
)

// Store is a Bolt-backed cursor and entry cache.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path and ensures all buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open cursor db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(metaBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(entriesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure cursor buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Offset returns the persisted read offset, or 0 if none was stored yet.
func (s *Store) Offset() (int64, error) {
	var offset int64
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(metaBucket).Get(offsetKey)
		if v == nil {
			return nil
		}
		if len(v) != 8 {
			return fmt.Errorf("corrupt offset value of length %d", len(v))
		}
		offset = int64(binary.BigEndian.Uint64(v))
		return nil
	})
	return offset, err
}

// SetOffset persists the read offset.
func (s *Store) SetOffset(offset int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(offset))
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put(offsetKey, buf[:])
	})
}

// PutEntry stores one raw entry under its sequence number. Re-putting the
// same sequence overwrites, which is harmless: entries are immutable.
func (s *Store) PutEntry(seq int64, entry transport.RawEntry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry %d: %w", seq, err)
	}
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(seq))
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).Put(key[:], value)
	})
}

// RecentEntries returns up to limit of the highest-sequence entries, in
// ascending sequence order (oldest first), matching the transport's page
// contract.
func (s *Store) RecentEntries(limit int) ([]transport.RawEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	var entries []transport.RawEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(entriesBucket).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var entry transport.RawEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				// A corrupt row degrades like any undecodable log
				// entry: skipped, not fatal.
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Reverse to ascending order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Len returns the number of cached entries.
func (s *Store) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(entriesBucket).Stats().KeyN
		return nil
	})
	return n, err
}
