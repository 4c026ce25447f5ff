// ABOUTME: Persistent remote-id cache over charm KV or a local BadgerDB
// ABOUTME: Values are decimal remote ids keyed by resolver cache keys

package kvcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	stdsync "sync"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"

	"github.com/harperreed/leadsync/crm"
	"github.com/harperreed/leadsync/sync"
)

// store is the byte-level KV surface shared by charm KV and plain BadgerDB.
type store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
}

// Cache implements sync.Cache.
type Cache struct {
	kv       store
	autoSync bool
	charm    bool
	closer   func() error
	mu       stdsync.RWMutex
}

var _ sync.Cache = (*Cache)(nil)

// Open returns the cache for backend along with a close function.
func Open(backend string) (sync.Cache, func() error, error) {
	switch backend {
	case crm.CacheBackendMemory:
		return sync.NewMemoryCache(), func() error { return nil }, nil
	case crm.CacheBackendCharm:
		cfg, err := LoadConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load charm config: %w", err)
		}
		c, err := OpenCharm(cfg)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	case crm.CacheBackendLocal, "":
		c, err := OpenLocal(LocalDir())
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// OpenCharm opens the cloud-synced charm KV store.
func OpenCharm(cfg *Config) (*Cache, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// Set charm host before opening KV
	_ = os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	// Sync on startup to pull remote changes
	if cfg.AutoSync {
		_ = db.Sync()
	}

	// charm/kv does not expose Close; badger is released on process exit.
	return &Cache{kv: db, autoSync: cfg.AutoSync, charm: true, closer: func() error { return nil }}, nil
}

// LocalDir is the default BadgerDB directory for the local backend.
func LocalDir() string {
	return filepath.Join(xdg.DataHome, AppName, "cache")
}

// OpenLocal opens a BadgerDB at dir without any server sync.
func OpenLocal(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	return &Cache{kv: &badgerKV{db: db}, closer: db.Close}, nil
}

func (c *Cache) Get(_ context.Context, key string) (int64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	raw, err := c.kv.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cache value for %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores a value and syncs if enabled.
func (c *Cache) Set(_ context.Context, key string, value int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set([]byte(key), []byte(strconv.FormatInt(value, 10))); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}

	// Sync while still holding lock to avoid race condition
	if c.autoSync {
		_ = c.kv.Sync()
	}
	return nil
}

// Delete removes a key and syncs if enabled. Missing keys are not an error.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete cache key %s: %w", key, err)
	}

	if c.autoSync {
		_ = c.kv.Sync()
	}
	return nil
}

// Keys returns all keys starting with prefix.
func (c *Cache) Keys(prefix string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all, err := c.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list cache keys: %w", err)
	}

	var matched []string
	for _, k := range all {
		if strings.HasPrefix(string(k), prefix) {
			matched = append(matched, string(k))
		}
	}
	return matched, nil
}

// Clear deletes every cached id. Charm deletions reach the server on the next Sync.
func (c *Cache) Clear() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return 0, fmt.Errorf("failed to list cache keys: %w", err)
	}
	for _, k := range keys {
		if err := c.kv.Delete(k); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return 0, fmt.Errorf("failed to delete cache key %s: %w", k, err)
		}
	}
	return len(keys), nil
}

// IsCharm reports whether the cache is backed by the charm server.
func (c *Cache) IsCharm() bool {
	return c.charm
}

// Sync performs a manual sync with the charm server. No-op for local caches.
func (c *Cache) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// CharmID returns the charm user id for this device, or "" for local caches.
func (c *Cache) CharmID() (string, error) {
	if !c.charm {
		return "", nil
	}
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
