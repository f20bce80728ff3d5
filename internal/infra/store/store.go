// Package store persists the playback queue and play history in a bbolt database.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"go.etcd.io/bbolt"

	"github.com/osa030/innerbeat/internal/domain/media"
)

var (
	queueBucket   = []byte("queue")
	historyBucket = []byte("history")
	currentKey    = []byte("current")
)

const defaultHistoryLimit = 200

// SavedQueue is the persisted state of the active queue.
type SavedQueue struct {
	Title    string           `json:"title"`
	Items    []media.Metadata `json:"items"`
	Index    int              `json:"index"`
	Position time.Duration    `json:"position"`
	Seed     string           `json:"seed,omitempty"` // Seed descriptor the queue was started from, if remote
	SavedAt  time.Time        `json:"saved_at"`
}

// HistoryEntry is one played item.
type HistoryEntry struct {
	Item     media.Metadata `json:"item"`
	PlayedAt time.Time      `json:"played_at"`
}

// Options configures the store.
type Options struct {
	HistoryLimit int // Entries kept; older ones are dropped on insert
}

// Store is a bbolt-backed queue and history store.
type Store struct {
	db           *bbolt.DB
	historyLimit int
}

// Open opens or creates the database at path.
func Open(path string, opts Options) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open bbolt database %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{queueBucket, historyBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not create buckets")
	}

	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &Store{db: db, historyLimit: limit}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveQueue replaces the saved queue.
func (s *Store) SaveQueue(q SavedQueue) error {
	if q.SavedAt.IsZero() {
		q.SavedAt = time.Now()
	}
	value, err := json.Marshal(q)
	if err != nil {
		return errors.Wrap(err, "error serializing queue")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(queueBucket).Put(currentKey, value)
	})
}

// LoadQueue returns the saved queue. The boolean is false when nothing was saved.
func (s *Store) LoadQueue() (SavedQueue, bool, error) {
	var (
		q     SavedQueue
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(queueBucket).Get(currentKey)
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &q)
	})
	if err != nil {
		return SavedQueue{}, false, errors.Wrap(err, "error deserializing queue")
	}
	return q, found, nil
}

// ClearQueue removes the saved queue.
func (s *Store) ClearQueue() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(queueBucket).Delete(currentKey)
	})
}

// historyKey orders entries by play time: 8 bytes of big-endian Unix nanoseconds, then the ID.
func historyKey(t time.Time, id string) []byte {
	key := make([]byte, 8, 8+1+len(id))
	binary.BigEndian.PutUint64(key, uint64(t.UnixNano()))
	key = append(key, ':')
	return append(key, id...)
}

func keyID(key []byte) []byte {
	if len(key) < 9 {
		return nil
	}
	return key[9:]
}

// AddToHistory records an item as played at playedAt. An earlier entry for the
// same item is replaced, and the oldest entries beyond the limit are dropped.
func (s *Store) AddToHistory(item media.Metadata, playedAt time.Time) error {
	if item.ID == "" {
		return errors.New("history entry without ID")
	}
	value, err := json.Marshal(HistoryEntry{Item: item, PlayedAt: playedAt})
	if err != nil {
		return errors.Wrap(err, "error serializing history entry")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(historyBucket)

		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if bytes.Equal(keyID(k), []byte(item.ID)) {
				if err := c.Delete(); err != nil {
					return err
				}
				break
			}
		}

		if err := b.Put(historyKey(playedAt, item.ID), value); err != nil {
			return err
		}

		var keys [][]byte
		c = b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for i := 0; i < len(keys)-s.historyLimit; i++ {
			if err := b.Delete(keys[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// History returns up to limit entries, most recent first.
func (s *Store) History(limit int) ([]HistoryEntry, error) {
	entries := make([]HistoryEntry, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(historyBucket).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var entry HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return errors.Wrap(err, "error deserializing history entry")
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
