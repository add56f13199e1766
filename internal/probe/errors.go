package probe

import "errors"

var (
	// ErrUnsupportedMethod is returned when a payload is to be delivered with a
	// method other than GET or POST.
	ErrUnsupportedMethod = errors.New("invalid HTTP method")

	// ErrHTTPStatus is returned when the final response status is 4xx or 5xx.
	ErrHTTPStatus = errors.New("HTTP error status")

	// ErrRequestFailed wraps transport failures (timeouts, refused connections,
	// TLS errors) and malformed request URLs.
	ErrRequestFailed = errors.New("request failed")
)
