package levelkv

import "github.com/aalhour/levelkv/internal/native"

// Cache is an engine-managed LRU block cache. One Cache may be shared by
// several databases.
type Cache struct {
	res      *resource
	capacity int
}

// NewLRUCache creates a block cache holding up to capacity bytes.
func NewLRUCache(capacity int) (*Cache, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	if capacity < 0 {
		return nil, newError(ErrOperation, "cache", "negative capacity")
	}
	p := native.CacheCreateLRU(uintptr(capacity))
	if p == 0 {
		return nil, newError(ErrOperation, "cache", "engine returned no cache")
	}
	return &Cache{res: newResource(p, native.CacheDestroy), capacity: capacity}, nil
}

// Capacity returns the capacity the cache was created with.
func (c *Cache) Capacity() int { return c.capacity }

// Close destroys the cache once no open database references it.
func (c *Cache) Close() { c.res.close() }
