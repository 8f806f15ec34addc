package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/recipebox/backend/internal/domain"
)

// DefaultMemoryEntries is used when NewMemoryCache is given a non-positive size
const DefaultMemoryEntries = 256

// MemoryCache is a thread-safe, size-bounded LRU of decoded images.
// Entries live for the lifetime of the cache; the least recently used entry
// is evicted once maxEntries is reached.
type MemoryCache struct {
	data       *lru.Cache[domain.CacheKey, *domain.Image]
	maxEntries int
}

// NewMemoryCache creates a new in-memory image cache holding at most maxEntries images
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}

	// lru.New only fails for a non-positive size
	data, err := lru.New[domain.CacheKey, *domain.Image](maxEntries)
	if err != nil {
		panic(err)
	}

	return &MemoryCache{
		data:       data,
		maxEntries: maxEntries,
	}
}

// Get retrieves an image from the cache
func (c *MemoryCache) Get(key domain.CacheKey) (*domain.Image, bool) {
	img, ok := c.data.Get(key)
	if !ok || img == nil {
		return nil, false
	}
	return img, true
}

// Put stores an image in the cache, replacing any previous entry for key.
// The cache keeps its own copy of the encoded bytes.
func (c *MemoryCache) Put(key domain.CacheKey, img *domain.Image) {
	if img == nil {
		return
	}
	c.data.Add(key, img.Clone())
}

// Delete removes an image from the cache
func (c *MemoryCache) Delete(key domain.CacheKey) {
	c.data.Remove(key)
}

// Len returns the current number of images in the cache
func (c *MemoryCache) Len() int {
	return c.data.Len()
}

// Cap returns the maximum number of images the cache holds
func (c *MemoryCache) Cap() int {
	return c.maxEntries
}

// Clear removes all images from the cache
func (c *MemoryCache) Clear() {
	c.data.Purge()
}
