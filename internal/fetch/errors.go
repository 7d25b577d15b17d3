package fetch

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when no base URL is set.
var ErrNotConfigured = errors.New("API_BASE_URL is not configured")

// ErrForeignHost is returned for absolute endpoints outside the base URL's
// scheme and host. The API key is only ever sent to that origin.
var ErrForeignHost = errors.New("endpoint is outside API_BASE_URL")

// NetworkError indicates the request never produced a response: connection
// failures, DNS errors and timeouts.
type NetworkError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("request to %s timed out: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable at %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError indicates a non-2xx response.
type HTTPError struct {
	URL    string
	Status int
	// Message is the provider's error message when the body carried one.
	Message string
	Body    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d url=%s message=%s", e.Status, e.URL, e.Message)
	}
	return fmt.Sprintf("api error: status=%d url=%s", e.Status, e.URL)
}

// DecodeError indicates a 2xx response whose body is not JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
