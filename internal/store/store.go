// Package store persists the optimistic counter buffer and the short-lived
// server counter cache in a local BoltDB file.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/seralin/muro/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketViews     = []byte("views")
	bucketDownloads = []byte("downloads")
	bucketCounters  = []byte("counters")
)

// CounterStore implements domain.CounterStore using BoltDB. Pending deltas
// are hydrated into memory at open so reads never touch disk; every
// increment is written through before it returns.
type CounterStore struct {
	db *bolt.DB
	mu sync.RWMutex

	views     map[string]int
	downloads map[string]int
}

// NewCounterStore opens (or creates) the buffer database under baseDir.
// An empty baseDir selects memory-only mode: increments work but do not
// survive a restart.
func NewCounterStore(baseDir string) (*CounterStore, error) {
	s := &CounterStore{
		views:     make(map[string]int),
		downloads: make(map[string]int),
	}
	if baseDir == "" {
		return s, nil
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(baseDir, "muro.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketViews, bucketDownloads, bucketCounters} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	if err := s.hydrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// hydrate loads persisted deltas into the memory maps.
func (s *CounterStore) hydrate() error {
	return s.db.View(func(tx *bolt.Tx) error {
		load := func(bucket []byte, dest map[string]int) error {
			b := tx.Bucket(bucket)
			if b == nil {
				return nil
			}
			return b.ForEach(func(k, v []byte) error {
				dest[string(k)] = int(decodeCount(v))
				return nil
			})
		}
		if err := load(bucketViews, s.views); err != nil {
			return err
		}
		return load(bucketDownloads, s.downloads)
	})
}

func (s *CounterStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func encodeCount(n int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}

func decodeCount(v []byte) int64 {
	if len(v) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(v))
}

func (s *CounterStore) bucketFor(kind domain.CounterKind) []byte {
	if kind == domain.CounterDownload {
		return bucketDownloads
	}
	return bucketViews
}

func (s *CounterStore) mapFor(kind domain.CounterKind) map[string]int {
	if kind == domain.CounterDownload {
		return s.downloads
	}
	return s.views
}

// === Optimistic deltas ===

// Increment records one pending increment for a filename. The memory map
// and the database stay in step; the write is durable when this returns.
func (s *CounterStore) Increment(filename string, kind domain.CounterKind) error {
	s.mu.Lock()
	m := s.mapFor(kind)
	m[filename]++
	count := m[filename]
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucketFor(kind))
		return b.Put([]byte(filename), encodeCount(int64(count)))
	})
}

// Get returns the pending deltas for a filename, zero when absent.
func (s *CounterStore) Get(filename string) domain.CounterRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CounterRecord{
		Views:     s.views[filename],
		Downloads: s.downloads[filename],
	}
}

// Deltas returns a snapshot of all pending deltas of one kind.
func (s *CounterStore) Deltas(kind domain.CounterKind) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.mapFor(kind)
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Reset clears every pending delta, in memory and on disk.
func (s *CounterStore) Reset() error {
	s.mu.Lock()
	s.views = make(map[string]int)
	s.downloads = make(map[string]int)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketViews, bucketDownloads} {
			if err := tx.DeleteBucket(bucket); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Server counter cache ===

// counterCacheEntry wraps a fetched counter set with its fetch time.
type counterCacheEntry struct {
	Counters  map[string]domain.CounterRecord `json:"counters"`
	FetchedAt time.Time                       `json:"fetchedAt"`
}

// GetCounters returns the cached server counters for a series, if present.
func (s *CounterStore) GetCounters(series string) (map[string]domain.CounterRecord, bool) {
	if s.db == nil {
		return nil, false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCounters)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(series)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if data == nil {
		return nil, false
	}

	var entry counterCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	return entry.Counters, true
}

// SaveCounters caches a fetched server counter set for a series.
func (s *CounterStore) SaveCounters(series string, counters map[string]domain.CounterRecord) error {
	if s.db == nil {
		return nil
	}

	data, err := json.Marshal(counterCacheEntry{Counters: counters, FetchedAt: time.Now()})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCounters)
		return b.Put([]byte(series), data)
	})
}

// InvalidateCounters drops the cached server counters for a series.
func (s *CounterStore) InvalidateCounters(series string) {
	if s.db == nil {
		return
	}
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCounters)
		if b != nil {
			b.Delete([]byte(series))
		}
		return nil
	})
}
