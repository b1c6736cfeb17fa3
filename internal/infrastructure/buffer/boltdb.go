package buffer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const defaultBucket = "completions"

// ErrFull is returned by Enqueue once MaxSize items are waiting.
var ErrFull = errors.New("buffer is full")

type Options struct {
	Path    string
	Bucket  string
	MaxSize int
}

// Store persists parked writes in BoltDB, ordered by priority then age.
type Store struct {
	db      *bolt.DB
	bucket  []byte
	maxSize int
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(opts Options) (*Store, error) {
	if opts.Bucket == "" {
		opts.Bucket = defaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(opts.Path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(opts.Bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:      db,
		bucket:  []byte(opts.Bucket),
		maxSize: opts.MaxSize,
	}, nil
}

// Enqueue stores an item under a key that sorts by priority, then timestamp.
func (s *Store) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	item.normalize()
	item.bucketKey = buildKey(item)

	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if s.maxSize > 0 && b.Stats().KeyN >= s.maxSize {
			return ErrFull
		}
		return b.Put(item.bucketKey, payload)
	})
}

// GetBatch returns up to limit items without removing them.
func (s *Store) GetBatch(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		return s.each(tx, func(k []byte, item Item) (bool, error) {
			item.bucketKey = append([]byte(nil), k...)
			items = append(items, item)
			return len(items) < limit, nil
		})
	})
	return items, err
}

// Remove deletes the item, by key when known and by id otherwise.
func (s *Store) Remove(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if len(item.bucketKey) > 0 {
			return b.Delete(item.bucketKey)
		}
		if item.ID == "" {
			return nil
		}
		var key []byte
		if err := s.each(tx, func(k []byte, stored Item) (bool, error) {
			if stored.ID == item.ID {
				key = append([]byte(nil), k...)
				return false, nil
			}
			return true, nil
		}); err != nil {
			return err
		}
		if key == nil {
			return nil
		}
		return b.Delete(key)
	})
}

// Requeue moves the item to the back of its priority lane, keeping its retry count.
func (s *Store) Requeue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	oldKey := item.bucketKey
	item.Timestamp = time.Now()
	item.bucketKey = buildKey(item)

	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if len(oldKey) > 0 {
			if err := b.Delete(oldKey); err != nil {
				return err
			}
		}
		return b.Put(item.bucketKey, payload)
	})
}

// Size returns the number of buffered items.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup removes items older than the provided timestamp, along with any
// value that no longer decodes, and reports how many went.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var removed int
	err := s.db.Update(func(tx *bolt.Tx) error {
		var stale [][]byte
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil || item.Timestamp.Before(olderThan) {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		b := tx.Bucket(s.bucket)
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// each walks the bucket in key order, skipping undecodable values, until fn
// returns false. Cleanup is what eventually deletes the skipped values.
func (s *Store) each(tx *bolt.Tx, fn func(k []byte, item Item) (bool, error)) error {
	c := tx.Bucket(s.bucket).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var item Item
		if err := json.Unmarshal(v, &item); err != nil {
			continue
		}
		more, err := fn(k, item)
		if err != nil || !more {
			return err
		}
	}
	return nil
}

func buildKey(item Item) []byte {
	return []byte(fmt.Sprintf("%d_%020d_%s", item.Priority, item.Timestamp.UnixNano(), item.ID))
}
