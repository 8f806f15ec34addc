// Package imagefetch is the network tier of the image cache.
package imagefetch

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
	defaultTimeout   = 30 * time.Second
	defaultMaxBytes  = 10 << 20
	defaultUserAgent = "RecipeBox/1.0"
)

// Config holds image download settings
type Config struct {
	Timeout           time.Duration
	MaxBytes          int64
	RequestsPerSecond float64 // zero disables rate limiting
	Burst             int
	UserAgent         string
}

// Client downloads raw image bytes over HTTP(S)
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[[]byte]
	maxBytes    int64
	userAgent   string
}

// NewClient creates a new image download client
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
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
		rateLimiter: limiter,
		breaker:     newBreaker("image-download"),
		maxBytes:    cfg.MaxBytes,
		userAgent:   cfg.UserAgent,
	}
}

// newBreaker opens after a 60% failure rate over at least 10 requests and
// probes again after 30 seconds. Client-side statuses and oversize payloads
// are answers from a healthy upstream and do not count as failures.
func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, domain.ErrImageTooLarge) {
				return true
			}
			var statusErr *domain.StatusError
			if errors.As(err, &statusErr) {
				return !statusErr.Retryable()
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("component", "imagefetch").
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
}

// FetchImage downloads the body at rawURL. Errors wrap domain.ErrInvalidLocator,
// domain.ErrTransportFailure or domain.ErrImageTooLarge.
func (c *Client) FetchImage(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := domain.ParseNetworkLocator(rawURL)
	if err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrTransportFailure, err)
	}

	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.download(ctx, u.String())
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", domain.ErrTransportFailure, err)
		}
		return nil, err
	}

	return data, nil
}

// download executes a single GET and reads at most maxBytes of body
func (c *Client) download(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrTransportFailure, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, fmt.Errorf("%w: %w", domain.ErrTransportFailure, &domain.StatusError{StatusCode: resp.StatusCode})
	}

	if resp.ContentLength > c.maxBytes {
		return nil, fmt.Errorf("%w: content length %d > %d", domain.ErrImageTooLarge, resp.ContentLength, c.maxBytes)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrTransportFailure, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrImageTooLarge, c.maxBytes)
	}

	return body, nil
}
