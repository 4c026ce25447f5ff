// ABOUTME: BadgerDB adapter exposing the same surface as charm/kv
// ABOUTME: The production store for the local backend, also used by test caches

package kvcache

import (
	"testing"

	"github.com/dgraph-io/badger/v3"
)

// badgerKV is the store behind the "local" cache backend. It keeps remote ids
// on disk under LocalDir and never talks to a server, so Sync is a no-op.
type badgerKV struct {
	db *badger.DB
}

func (b *badgerKV) Get(key []byte) ([]byte, error) {
	var result []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	return result, err
}

func (b *badgerKV) Set(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *badgerKV) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (b *badgerKV) Keys() ([][]byte, error) {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

func (b *badgerKV) Sync() error {
	return nil
}

// NewTestCache opens a local cache in t.TempDir and closes it when the test ends.
func NewTestCache(t testing.TB) *Cache {
	t.Helper()

	c, err := OpenLocal(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open test cache: %v", err)
	}

	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Logf("failed to close test cache: %v", err)
		}
	})

	return c
}
