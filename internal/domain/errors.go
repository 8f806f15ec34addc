package domain

import "errors"

var (
	// ErrInvalidEndpoint is returned when the configured catalog endpoint is malformed
	ErrInvalidEndpoint = errors.New("invalid catalog endpoint")

	// ErrDecodingFailed is returned when a catalog or image body does not match the expected shape
	ErrDecodingFailed = errors.New("decoding failed")

	// ErrTransportFailure is returned when the remote endpoint could not be reached
	// or did not deliver a usable response
	ErrTransportFailure = errors.New("transport failure")

	// ErrStorage is returned when the disk cache directory or a cache file cannot be written
	ErrStorage = errors.New("storage error")

	// ErrInvalidLocator is returned when an image identifier is not an absolute http(s) URL
	ErrInvalidLocator = errors.New("invalid network locator")

	// ErrUpstreamStatus is returned when the remote endpoint answers with a non-success status
	ErrUpstreamStatus = errors.New("unexpected upstream status")

	// ErrImageTooLarge is returned when an image payload exceeds the configured size limit
	ErrImageTooLarge = errors.New("image exceeds size limit")
)

// User-facing messages for a failed catalog fetch.
const (
	MessageInvalidEndpoint = "Invalid URL"
	MessageDecodingFailed  = "Something went wrong while loading recipes."
	MessageTransport       = "Unable to reach the recipe service."
)

// UserMessage maps a catalog error to the single message shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidEndpoint):
		return MessageInvalidEndpoint
	case errors.Is(err, ErrTransportFailure):
		return MessageTransport
	default:
		return MessageDecodingFailed
	}
}
