// Package cache persists provider search responses between runs, so
// re-running on the same batch of files does not hammer the provider
// APIs. Entries expire on their own; there is no manual invalidation.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/sirupsen/logrus"
)

// DefaultTTL matches how long provider results stay useful: releases for
// a given video rarely change after a month.
const DefaultTTL = 30 * 24 * time.Hour

// Cache is a TTL'd key-value store over a local badger database.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens (or creates) the cache database at dir.
func Open(dir string, ttl time.Duration, logger *logrus.Logger) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	opts := badger.DefaultOptions(dir).WithLogger(logger)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache at %q: %w", dir, err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Close flushes and closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get looks up key and JSON-decodes the stored value into target.
// The second return is false on a miss (including expired entries).
func (c *Cache) Get(key string, target interface{}) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, target)
		})
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache lookup for %q failed: %w", key, err)
	}
	return true, nil
}

// Put JSON-encodes value and stores it under key with the cache TTL.
func (c *Cache) Put(key string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %q: %w", key, err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), encoded).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache store for %q failed: %w", key, err)
	}
	return nil
}
