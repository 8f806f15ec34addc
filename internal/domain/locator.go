package domain

import (
	"fmt"
	"net/http"
	"net/url"
)

// ParseNetworkLocator parses raw as an absolute http or https URL with a host.
func ParseNetworkLocator(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocator, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q is not an http(s) URL", ErrInvalidLocator, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidLocator, raw)
	}
	return u, nil
}

// StatusError reports a non-success HTTP status from an upstream endpoint.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamStatus
}

// Retryable reports whether the status is worth another attempt (429 and 5xx).
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
