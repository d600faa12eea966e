package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const renderPrefix = "render:"

// RenderCache stores rendered post HTML. Entries expire after ttl; callers
// put the post's update time in the key so edits never read stale output.
type RenderCache struct {
	db  *DB
	ttl time.Duration
}

// NewRenderCache creates a new render cache
func NewRenderCache(db *DB, ttl time.Duration) *RenderCache {
	return &RenderCache{db: db, ttl: ttl}
}

// Get returns the cached value for key
func (c *RenderCache) Get(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(renderPrefix + key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read render cache: %w", err)
	}

	return value, true, nil
}

// Set stores value under key
func (c *RenderCache) Set(ctx context.Context, key, value string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(renderPrefix+key), []byte(value))
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// InvalidatePrefix removes every entry whose key starts with prefix
func (c *RenderCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	full := []byte(renderPrefix + prefix)

	var keys [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(full); it.ValidForPrefix(full); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan render cache: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}
