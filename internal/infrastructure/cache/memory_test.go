package cache

import (
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/recipebox/backend/internal/domain"
)

func testImage(key domain.CacheKey, data string) *domain.Image {
	return &domain.Image{
		Key:     key,
		Format:  "png",
		Data:    []byte(data),
		Decoded: image.NewRGBA(image.Rect(0, 0, 2, 2)),
	}
}

func TestMemoryCache_PutAndGet(t *testing.T) {
	cache := NewMemoryCache(10)

	tests := []struct {
		name string
		key  domain.CacheKey
		data string
	}{
		{name: "store and retrieve", key: DeriveKey("https://example.com/a.png"), data: "a"},
		{name: "store second entry", key: DeriveKey("https://example.com/b.png"), data: "b"},
		{name: "overwrite existing", key: DeriveKey("https://example.com/a.png"), data: "a2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache.Put(tt.key, testImage(tt.key, tt.data))

			got, ok := cache.Get(tt.key)
			if !ok {
				t.Fatalf("Get() miss after Put()")
			}
			if string(got.Data) != tt.data {
				t.Errorf("Get() data = %q, want %q", got.Data, tt.data)
			}
		})
	}

	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	cache := NewMemoryCache(10)

	if _, ok := cache.Get(DeriveKey("non-existent-key")); ok {
		t.Errorf("Get() hit for missing key")
	}
}

func TestMemoryCache_PutNil(t *testing.T) {
	cache := NewMemoryCache(10)
	key := DeriveKey("nil")

	cache.Put(key, nil)

	if _, ok := cache.Get(key); ok {
		t.Errorf("Put(nil) should not create an entry")
	}
}

func TestMemoryCache_OwnsItsCopy(t *testing.T) {
	cache := NewMemoryCache(10)
	key := DeriveKey("copy")
	img := testImage(key, "original")

	cache.Put(key, img)
	img.Data[0] = 'X'

	got, _ := cache.Get(key)
	if string(got.Data) != "original" {
		t.Errorf("cached data = %q, want %q", got.Data, "original")
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache(10)
	key := DeriveKey("delete-test")

	cache.Put(key, testImage(key, "value"))
	if _, ok := cache.Get(key); !ok {
		t.Fatalf("Get() before delete missed")
	}

	cache.Delete(key)

	if _, ok := cache.Get(key); ok {
		t.Errorf("Get() after delete hit")
	}
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewMemoryCache(2)
	a, b, c := DeriveKey("a"), DeriveKey("b"), DeriveKey("c")

	cache.Put(a, testImage(a, "a"))
	cache.Put(b, testImage(b, "b"))
	// touch a so b becomes the eviction candidate
	cache.Get(a)
	cache.Put(c, testImage(c, "c"))

	if _, ok := cache.Get(b); ok {
		t.Errorf("expected b to be evicted")
	}
	if _, ok := cache.Get(a); !ok {
		t.Errorf("expected a to survive")
	}
	if _, ok := cache.Get(c); !ok {
		t.Errorf("expected c to be present")
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
}

func TestMemoryCache_DefaultSize(t *testing.T) {
	cache := NewMemoryCache(0)
	if cache.Cap() != DefaultMemoryEntries {
		t.Errorf("Cap() = %d, want %d", cache.Cap(), DefaultMemoryEntries)
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := NewMemoryCache(10)

	for i := 0; i < 5; i++ {
		key := DeriveKey(fmt.Sprintf("key-%d", i))
		cache.Put(key, testImage(key, "v"))
	}
	if cache.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", cache.Len())
	}

	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", cache.Len())
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	cache := NewMemoryCache(1000)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := DeriveKey(fmt.Sprintf("concurrent-%d", id))
			for j := 0; j < 100; j++ {
				cache.Put(key, testImage(key, fmt.Sprintf("v%d", j)))
				if _, ok := cache.Get(key); !ok {
					t.Errorf("Get() missed key %d right after Put()", id)
					return
				}
			}
		}(i)
	}

	wg.Wait()

	if cache.Len() != 50 {
		t.Errorf("Len() = %d, want 50", cache.Len())
	}
	for i := 0; i < 50; i++ {
		got, ok := cache.Get(DeriveKey(fmt.Sprintf("concurrent-%d", i)))
		if !ok || string(got.Data) != "v99" {
			t.Errorf("key %d: got %v, ok=%v", i, got, ok)
		}
	}
}
