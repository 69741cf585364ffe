// Package cache provides a Badger-backed key-value cache with per-entry TTLs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrMiss is returned when a key is absent or has expired.
var ErrMiss = errors.New("cache miss")

// Store wraps a Badger database used for short-lived values.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens the cache at path. An empty path keeps everything in memory.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil            // Disable Badger's internal logging
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("Badger cache opened", "path", path, "in_memory", path == "")

	return &Store{db: db, logger: logger}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunGC reclaims value log space until ctx is cancelled.
func (s *Store) RunGC(ctx context.Context, interval time.Duration) {
	if s.db.Opts().InMemory {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				// RunValueLogGC returns ErrNoRewrite once nothing is left to collect.
				if err := s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
		}
	}
}

// Bucket is a typed view over keys sharing a prefix. Values are JSON encoded
// and expire after the bucket's TTL.
type Bucket[T any] struct {
	store  *Store
	prefix string
	ttl    time.Duration
}

// NewBucket creates a bucket. A zero ttl stores entries without expiry.
func NewBucket[T any](s *Store, prefix string, ttl time.Duration) *Bucket[T] {
	return &Bucket[T]{store: s, prefix: prefix, ttl: ttl}
}

func (b *Bucket[T]) key(id string) []byte {
	return []byte(b.prefix + id)
}

// Put stores value under id, replacing any previous entry and resetting its TTL.
func (b *Bucket[T]) Put(ctx context.Context, id string, value *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return b.store.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(b.key(id), data)
		if b.ttl > 0 {
			entry = entry.WithTTL(b.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Get returns the value stored under id or ErrMiss.
func (b *Bucket[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value T
	err := b.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &value)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// Take returns the value under id and deletes it in the same transaction,
// so concurrent callers cannot both consume one entry.
func (b *Bucket[T]) Take(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value T
	err := b.store.db.Update(func(txn *badger.Txn) error {
		key := b.key(id)
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &value)
		}); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// Delete removes id. Deleting a missing key is not an error.
func (b *Bucket[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.store.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.key(id))
	})
}

// DeletePrefix removes every key in the bucket that starts with sub and
// returns how many were removed.
func (b *Bucket[T]) DeletePrefix(ctx context.Context, sub string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := []byte(b.prefix + sub)
	var keys [][]byte
	err := b.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := b.store.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return len(keys), nil
}
