// Package catalog fetches and decodes the remote recipe catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/recipebox/backend/internal/domain"
	"github.com/recipebox/backend/internal/logging"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffBase = 500 * time.Millisecond
	defaultUserAgent   = "RecipeBox/1.0"

	// catalog bodies are small; anything bigger is not a catalog
	maxBodyBytes = 8 << 20
)

// Config holds catalog client settings
type Config struct {
	Endpoint          string
	Timeout           time.Duration
	MaxAttempts       int
	BackoffBase       time.Duration
	RequestsPerSecond float64 // zero disables rate limiting
	Burst             int
	UserAgent         string
}

// Client handles communication with the recipe catalog endpoint
type Client struct {
	httpClient  *http.Client
	endpoint    string
	maxAttempts int
	backoffBase time.Duration
	userAgent   string
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a new catalog client. The endpoint is validated on each fetch.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint:    cfg.Endpoint,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		userAgent:   cfg.UserAgent,
		rateLimiter: limiter,
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "catalog",
			MaxRequests: 1,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !isRetryable(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().
					Str("component", "catalog").
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state change")
			},
		}),
	}
}

// exponentialBackoff returns the wait before the next attempt: base, 2*base, 4*base, ...
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

// isRetryable reports whether another attempt may succeed
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return errors.Is(err, domain.ErrTransportFailure)
}

// FetchCatalog fetches and decodes the catalog. Errors wrap domain.ErrInvalidEndpoint,
// domain.ErrTransportFailure or domain.ErrDecodingFailed.
func (c *Client) FetchCatalog(ctx context.Context) (domain.Catalog, error) {
	u, err := domain.ParseNetworkLocator(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidEndpoint, err)
	}
	reqURL := u.String()
	log := logging.Component("catalog")

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrTransportFailure, err)
		}

		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.doRequest(ctx, reqURL)
		})
		if err == nil {
			catalog, err := DecodeCatalog(body)
			if err != nil {
				log.Warn().Err(err).Str("endpoint", reqURL).Msg("catalog decode failed")
				return nil, err
			}
			log.Debug().Int("recipes", len(catalog)).Int("attempt", attempt).Msg("catalog fetched")
			return catalog, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", domain.ErrTransportFailure, err)
		}

		lastErr = err
		if !isRetryable(err) || attempt == c.maxAttempts {
			break
		}

		wait := exponentialBackoff(c.backoffBase, attempt)
		log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", wait).Msg("catalog request failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %v", domain.ErrTransportFailure, ctx.Err())
		case <-timer.C:
		}
	}

	log.Error().Err(lastErr).Str("endpoint", reqURL).Msg("catalog fetch failed")
	return nil, lastErr
}

// doRequest executes one GET and returns the body of a 2xx response
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrTransportFailure, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrTransportFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransportFailure, &domain.StatusError{StatusCode: resp.StatusCode})
	}

	return body, nil
}
