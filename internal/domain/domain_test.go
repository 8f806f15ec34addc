package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"invalid endpoint", fmt.Errorf("%w: missing scheme", ErrInvalidEndpoint), MessageInvalidEndpoint},
		{"transport", fmt.Errorf("%w: connection refused", ErrTransportFailure), MessageTransport},
		{"status wrapped in transport", fmt.Errorf("%w: %w", ErrTransportFailure, &StatusError{StatusCode: 503}), MessageTransport},
		{"decoding", fmt.Errorf("%w: unexpected end of JSON", ErrDecodingFailed), MessageDecodingFailed},
		{"unclassified", errors.New("boom"), MessageDecodingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestRecipeThumbnail(t *testing.T) {
	small, large, empty := "https://img/s.jpg", "https://img/l.jpg", ""

	tests := []struct {
		name   string
		recipe Recipe
		want   string
		wantOK bool
	}{
		{"prefers small", Recipe{PhotoURLSmall: &small, PhotoURLLarge: &large}, small, true},
		{"falls back to large", Recipe{PhotoURLLarge: &large}, large, true},
		{"empty small falls back", Recipe{PhotoURLSmall: &empty, PhotoURLLarge: &large}, large, true},
		{"no photos", Recipe{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.recipe.Thumbnail()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "abc", Recipe{UUID: "abc"}.ID())
}

func TestParseNetworkLocator(t *testing.T) {
	valid := []string{
		"https://d3jbb8n5wk0qxi.cloudfront.net/photos/small.jpg",
		"http://localhost:8080/a.png",
	}
	for _, raw := range valid {
		u, err := ParseNetworkLocator(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, raw, u.String())
	}

	invalid := []string{
		"",
		"not a url",
		"/relative/path.jpg",
		"ftp://example.com/a.jpg",
		"file:///etc/passwd",
		"https://",
		"http://[::1",
	}
	for _, raw := range invalid {
		_, err := ParseNetworkLocator(raw)
		assert.ErrorIs(t, err, ErrInvalidLocator, raw)
	}
}

func TestStatusError(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrTransportFailure, &StatusError{StatusCode: http.StatusNotFound})

	assert.ErrorIs(t, err, ErrUpstreamStatus)
	assert.ErrorIs(t, err, ErrTransportFailure)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "404 Not Found")

	for code, want := range map[int]bool{400: false, 403: false, 404: false, 429: true, 500: true, 503: true} {
		assert.Equal(t, want, (&StatusError{StatusCode: code}).Retryable(), "status %d", code)
	}
}

func TestImage(t *testing.T) {
	img := &Image{Key: "k", Format: "png", Data: []byte{1, 2, 3}}

	assert.Equal(t, "image/png", img.ContentType())
	assert.Equal(t, "application/octet-stream", (&Image{}).ContentType())

	clone := img.Clone()
	clone.Data[0] = 9
	assert.Equal(t, byte(1), img.Data[0])
	assert.Equal(t, img.Key, clone.Key)

	var nilImg *Image
	assert.Nil(t, nilImg.Clone())
}
