package domain

import "context"

// CatalogFetcher retrieves the recipe catalog from the remote endpoint
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context) (Catalog, error)
}

// ImageFetcher downloads raw image bytes from an absolute http(s) URL
type ImageFetcher interface {
	FetchImage(ctx context.Context, rawURL string) ([]byte, error)
}

// ImageDecoder turns encoded bytes into an Image
type ImageDecoder interface {
	Decode(data []byte) (*Image, error)
}

// MemoryStore is the volatile, process-lifetime image tier
type MemoryStore interface {
	Get(key CacheKey) (*Image, bool)
	Put(key CacheKey, img *Image)
}

// DiskStore is the persistent key -> bytes tier
type DiskStore interface {
	EnsureReady() error
	Get(key CacheKey) ([]byte, bool)
	Put(key CacheKey, data []byte) error
	Delete(key CacheKey) error
}

// ImageResolver resolves an image reference to image bytes, never failing loudly
type ImageResolver interface {
	Resolve(ctx context.Context, identifier string) (*Image, bool)
}
