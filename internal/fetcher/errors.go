package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrStatus indicates the final response had a non-2xx status code.
	ErrStatus = errors.New("unexpected HTTP status")

	// ErrBodyTooLarge indicates the response body exceeded the size limit.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")

	// ErrInvalidProxy indicates the proxy URL could not be used.
	// Supported schemes are http, https, socks5 and socks5h.
	ErrInvalidProxy = errors.New("invalid proxy URL")
)

// FetchError describes a failed fetch after all attempts were used.
//
// Design decision: We return a struct error rather than a plain wrapped
// error because:
//  1. The crawler records StatusCode in the report's failure list
//  2. Attempts shows whether retries happened
//  3. errors.Is still reaches ErrStatus or the transport error through Unwrap
type FetchError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the last HTTP status received, or 0 if no response arrived.
	StatusCode int

	// Attempts is the number of attempts made.
	Attempts int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}
