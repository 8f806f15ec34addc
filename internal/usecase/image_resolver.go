package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/recipebox/backend/internal/domain"
	"github.com/recipebox/backend/internal/infrastructure/cache"
	"github.com/recipebox/backend/internal/logging"
)

const (
	defaultFetchTimeout        = 30 * time.Second
	defaultPrefetchConcurrency = 8
)

// ImageResolverConfig holds configuration for the image resolver
type ImageResolverConfig struct {
	// FetchTimeout bounds a network fetch that has outlived the caller that started it.
	FetchTimeout time.Duration

	// DisableDedup lets concurrent misses for the same identifier fetch independently.
	DisableDedup bool
}

// ResolverStats counts how resolutions were satisfied
type ResolverStats struct {
	MemoryHits     uint64 `json:"memoryHits"`
	DiskHits       uint64 `json:"diskHits"`
	NetworkFetches uint64 `json:"networkFetches"`
	Misses         uint64 `json:"misses"`
	DiskWriteFails uint64 `json:"diskWriteFails"`
}

// ImageResolver serves images from memory, then disk, then the network,
// writing each slower-tier result through to the faster tiers.
type ImageResolver struct {
	memory       domain.MemoryStore
	disk         domain.DiskStore
	fetcher      domain.ImageFetcher
	decoder      domain.ImageDecoder
	flights      singleflight.Group
	dedup        bool
	fetchTimeout time.Duration
	log          zerolog.Logger

	memoryHits     atomic.Uint64
	diskHits       atomic.Uint64
	networkFetches atomic.Uint64
	misses         atomic.Uint64
	diskWriteFails atomic.Uint64
}

// NewImageResolver creates a new image resolver with dependencies
func NewImageResolver(
	memory domain.MemoryStore,
	disk domain.DiskStore,
	fetcher domain.ImageFetcher,
	decoder domain.ImageDecoder,
	config ImageResolverConfig,
) *ImageResolver {
	fetchTimeout := config.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}

	return &ImageResolver{
		memory:       memory,
		disk:         disk,
		fetcher:      fetcher,
		decoder:      decoder,
		dedup:        !config.DisableDedup,
		fetchTimeout: fetchTimeout,
		log:          logging.Component("resolver"),
	}
}

// Resolve returns the image for identifier, or false if it cannot be produced.
// Failures are logged, never returned. The returned image is shared with the
// memory tier and must be treated as read-only.
// Flow: memory -> disk (decode, warm memory) -> network (decode, write memory and disk)
func (r *ImageResolver) Resolve(ctx context.Context, identifier string) (*domain.Image, bool) {
	key := cache.DeriveKey(identifier)

	if img, ok := r.memory.Get(key); ok {
		r.memoryHits.Add(1)
		return img, true
	}

	if img, ok := r.fromDisk(key); ok {
		r.diskHits.Add(1)
		return img, true
	}

	if _, err := domain.ParseNetworkLocator(identifier); err != nil {
		r.log.Debug().Err(err).Str("key", key.String()).Msg("not a network locator")
		r.misses.Add(1)
		return nil, false
	}

	var (
		img *domain.Image
		err error
	)
	if r.dedup {
		img, err = r.fetchShared(ctx, key, identifier)
	} else {
		img, err = r.fetchAndStore(ctx, key, identifier)
	}
	if err != nil {
		r.log.Debug().Err(err).Str("url", identifier).Msg("image resolution failed")
		r.misses.Add(1)
		return nil, false
	}

	return img, true
}

// ResolveAll resolves identifiers concurrently and reports which succeeded
func (r *ImageResolver) ResolveAll(ctx context.Context, identifiers []string, concurrency int) map[string]bool {
	if concurrency <= 0 {
		concurrency = defaultPrefetchConcurrency
	}

	results := make([]bool, len(identifiers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, id := range identifiers {
		g.Go(func() error {
			_, results[i] = r.Resolve(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	resolved := make(map[string]bool, len(identifiers))
	for i, id := range identifiers {
		resolved[id] = resolved[id] || results[i]
	}
	return resolved
}

// Stats returns a snapshot of the resolution counters
func (r *ImageResolver) Stats() ResolverStats {
	return ResolverStats{
		MemoryHits:     r.memoryHits.Load(),
		DiskHits:       r.diskHits.Load(),
		NetworkFetches: r.networkFetches.Load(),
		Misses:         r.misses.Load(),
		DiskWriteFails: r.diskWriteFails.Load(),
	}
}

// fromDisk reads and decodes the disk entry for key, warming the memory tier.
// Undecodable entries are removed and reported as a miss.
func (r *ImageResolver) fromDisk(key domain.CacheKey) (*domain.Image, bool) {
	data, ok := r.disk.Get(key)
	if !ok {
		return nil, false
	}

	img, err := r.decoder.Decode(data)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key.String()).Msg("corrupt disk cache entry")
		if err := r.disk.Delete(key); err != nil {
			r.log.Debug().Err(err).Str("key", key.String()).Msg("remove corrupt entry")
		}
		return nil, false
	}

	img.Key = key
	r.memory.Put(key, img)
	return img, true
}

// fetchShared joins or starts the single in-flight fetch for key. The fetch
// runs detached from ctx so a caller that gives up does not cancel it for
// the others; the caller itself stops waiting when ctx is done.
func (r *ImageResolver) fetchShared(ctx context.Context, key domain.CacheKey, identifier string) (*domain.Image, error) {
	ch := r.flights.DoChan(key.String(), func() (interface{}, error) {
		// a flight that finished just before this one started may have filled memory
		if img, ok := r.memory.Get(key); ok {
			return img, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.fetchTimeout)
		defer cancel()
		return r.fetchAndStore(fetchCtx, key, identifier)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Image), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetchAndStore downloads and decodes the image, then populates both tiers.
// Undecodable payloads are never written to disk.
func (r *ImageResolver) fetchAndStore(ctx context.Context, key domain.CacheKey, identifier string) (*domain.Image, error) {
	data, err := r.fetcher.FetchImage(ctx, identifier)
	if err != nil {
		return nil, err
	}
	r.networkFetches.Add(1)

	img, err := r.decoder.Decode(data)
	if err != nil {
		return nil, err
	}
	img.Key = key

	r.memory.Put(key, img)

	// Log but don't fail if disk caching fails
	if err := r.disk.Put(key, data); err != nil {
		r.diskWriteFails.Add(1)
		r.log.Warn().Err(err).Str("key", key.String()).Msg("disk cache write failed")
	}

	return img, nil
}
