package buffer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	defaultBucket = "task_writes"
	deadSuffix    = "_dead"
)

// Store keeps task writes in a BoltDB file while Postgres is unreachable.
// Pending keys sort by priority, then enqueue time. Writes that can never be
// replayed are moved to a second bucket instead of being lost.
type Store struct {
	db      *bolt.DB
	pending []byte
	dead    []byte
}

// DeadItem is a write that was given up on, with the reason.
type DeadItem struct {
	Item
	Reason string    `json:"reason"`
	DiedAt time.Time `json:"died_at"`
}

// Open creates the BoltDB file and its buckets if needed.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = defaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open buffer %s: %w", path, err)
	}

	s := &Store{
		db:      db,
		pending: []byte(bucket),
		dead:    []byte(bucket + deadSuffix),
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{s.pending, s.dead} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Enqueue stores a write. A task delete supersedes any create or update still
// pending for the same task, since replaying them would be wasted work.
func (s *Store) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.pending)
		if item.Entity == EntityTask && item.Operation == OperationDelete && item.TaskID != "" {
			if err := dropTaskWrites(b, item.TaskID); err != nil {
				return err
			}
		}
		return put(b, &item)
	})
}

// GetBatch returns up to limit pending items without removing them. Entries
// that no longer decode are moved to the dead bucket.
func (s *Store) GetBatch(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	var corrupt [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.pending).Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				corrupt = append(corrupt, append([]byte(nil), k...))
				continue
			}
			item.bucketKey = append([]byte(nil), k...)
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(corrupt) > 0 {
		if err := s.quarantine(corrupt); err != nil {
			return items, err
		}
	}
	return items, nil
}

// Remove deletes a pending item.
func (s *Store) Remove(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return removeItem(tx.Bucket(s.pending), item)
	})
}

// Retry puts an item back at the end of its priority band in one transaction.
func (s *Store) Retry(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.pending)
		if err := removeItem(b, item); err != nil {
			return err
		}
		item.bucketKey = nil
		item.Timestamp = time.Now()
		return put(b, &item)
	})
}

// Bury moves an item out of the pending queue into the dead bucket.
func (s *Store) Bury(item Item, reason string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := removeItem(tx.Bucket(s.pending), item); err != nil {
			return err
		}
		item.bucketKey = nil
		payload, err := json.Marshal(DeadItem{Item: item, Reason: reason, DiedAt: time.Now()})
		if err != nil {
			return err
		}
		return tx.Bucket(s.dead).Put([]byte(buildKey(item)), payload)
	})
}

// Dead returns the buried items, oldest key first.
func (s *Store) Dead() ([]DeadItem, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var items []DeadItem
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.dead).ForEach(func(_, v []byte) error {
			var item DeadItem
			if err := json.Unmarshal(v, &item); err != nil {
				item.Reason = "undecodable entry"
			}
			items = append(items, item)
			return nil
		})
	})
	return items, err
}

// Size returns the number of pending items.
func (s *Store) Size() (int, error) {
	if s == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	return s.count(s.pending)
}

// DeadCount returns the number of buried items.
func (s *Store) DeadCount() (int, error) {
	if s == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	return s.count(s.dead)
}

// Cleanup drops pending items enqueued before olderThan and reports how many
// went.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.pending).Cursor()
		for k, v := c.First(); k != nil; {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil || !item.Timestamp.Before(olderThan) {
				k, v = c.Next()
				continue
			}
			key := append([]byte(nil), k...)
			if err := c.Delete(); err != nil {
				return err
			}
			removed++
			k, v = c.Seek(key)
		}
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

func (s *Store) count(bucket []byte) (int, error) {
	if s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bucket).Stats().KeyN
		return nil
	})
	return count, err
}

func (s *Store) quarantine(keys [][]byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		pending, dead := tx.Bucket(s.pending), tx.Bucket(s.dead)
		for _, k := range keys {
			raw := pending.Get(k)
			if raw == nil {
				continue
			}
			if err := dead.Put(k, append([]byte(nil), raw...)); err != nil {
				return err
			}
			if err := pending.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func put(b *bolt.Bucket, item *Item) error {
	item.normalize()
	item.bucketKey = []byte(buildKey(*item))
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return b.Put(item.bucketKey, payload)
}

func removeItem(b *bolt.Bucket, item Item) error {
	if len(item.bucketKey) > 0 {
		return b.Delete(item.bucketKey)
	}
	if item.ID == "" {
		return nil
	}
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var stored Item
		if err := json.Unmarshal(v, &stored); err != nil {
			continue
		}
		if stored.ID == item.ID {
			return c.Delete()
		}
	}
	return nil
}

func dropTaskWrites(b *bolt.Bucket, taskID string) error {
	var stale [][]byte
	err := b.ForEach(func(k, v []byte) error {
		var item Item
		if err := json.Unmarshal(v, &item); err != nil {
			return nil
		}
		if item.Entity == EntityTask && item.TaskID == taskID &&
			(item.Operation == OperationCreate || item.Operation == OperationUpdate) {
			stale = append(stale, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range stale {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func buildKey(item Item) string {
	return fmt.Sprintf("%d_%020d_%s", item.Priority, item.Timestamp.UnixNano(), item.ID)
}
