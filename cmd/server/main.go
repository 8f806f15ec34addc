package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/recipebox/backend/config"
	httpDelivery "github.com/recipebox/backend/internal/delivery/http"
	"github.com/recipebox/backend/internal/infrastructure/cache"
	"github.com/recipebox/backend/internal/infrastructure/catalog"
	"github.com/recipebox/backend/internal/infrastructure/imagefetch"
	"github.com/recipebox/backend/internal/infrastructure/imaging"
	"github.com/recipebox/backend/internal/logging"
	"github.com/recipebox/backend/internal/usecase"
)

const (
	// 8192x8192
	maxImagePixels  = 64 << 20
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("catalog", cfg.Catalog.Endpoint).
		Msg("Starting RecipeBox Backend v1.0.0")

	// Image cache tiers
	cacheDir := cfg.Images.CacheDir
	if cacheDir == "" {
		cacheDir, err = cache.DefaultDir()
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to locate user cache directory")
		}
	}

	diskCache := cache.NewDiskCache(afero.NewOsFs(), cacheDir)
	if err := diskCache.EnsureReady(); err != nil {
		// disk writes retry EnsureReady on every put; memory and network still work
		logging.Warn().Err(err).Str("dir", cacheDir).Msg("Image disk cache unavailable")
	} else {
		logging.Info().Str("dir", diskCache.Dir()).Msg("Image disk cache ready")
	}

	memoryCache := cache.NewMemoryCache(cfg.Images.MemoryEntries)

	imageClient := imagefetch.NewClient(imagefetch.Config{
		Timeout:           cfg.Images.Timeout,
		MaxBytes:          cfg.Images.MaxBytes,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
	})

	resolver := usecase.NewImageResolver(
		memoryCache,
		diskCache,
		imageClient,
		imaging.NewDecoder(maxImagePixels),
		usecase.ImageResolverConfig{
			FetchTimeout: cfg.Images.Timeout,
			DisableDedup: !cfg.Images.Dedup,
		},
	)

	catalogClient := catalog.NewClient(catalog.Config{
		Endpoint:          cfg.Catalog.Endpoint,
		Timeout:           cfg.Catalog.Timeout,
		MaxAttempts:       cfg.Catalog.MaxAttempts,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
	})

	logging.Info().
		Int("memory_entries", memoryCache.Cap()).
		Bool("dedup", cfg.Images.Dedup).
		Int64("max_bytes", cfg.Images.MaxBytes).
		Msg("Image resolver configured")

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(catalogClient, resolver)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
