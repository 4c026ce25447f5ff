// ABOUTME: Remote id cache abstraction used by the resolvers
// ABOUTME: In-memory implementation plus key helpers shared with persistent backends
package sync

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Cache maps string keys to remote ids. Implementations must be safe for
// concurrent use. A miss is (0, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (int64, bool, error)
	Set(ctx context.Context, key string, value int64) error
	Delete(ctx context.Context, key string) error
}

// LabelCacheKey is the cache key for a label option id.
func LabelCacheKey(name string) string {
	return "label:" + strings.ToLower(strings.TrimSpace(name))
}

// OwnerCacheKey is the cache key for a user's remote owner id.
func OwnerCacheKey(userID uuid.UUID) string {
	return "owner:" + userID.String()
}

type MemoryCache struct {
	mu     sync.RWMutex
	values map[string]int64
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string]int64)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (int64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}
