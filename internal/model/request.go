package model

import (
	"net/http"
	"time"
)

// UserAgentHeader is the header name that is always overwritten with the
// configured user agent.
const UserAgentHeader = "User-Agent"

// HeaderMap maps a header name to its value.
// After construction by the header parser, the User-Agent key is always
// present and equals the configured user agent.
type HeaderMap map[string]string

// Get returns the value for name, or an empty string.
// Lookup is exact: names keep the spelling the user gave them.
func (h HeaderMap) Get(name string) string {
	return h[name]
}

// Has reports whether a header with the given name is present, ignoring case.
func (h HeaderMap) Has(name string) bool {
	canonical := http.CanonicalHeaderKey(name)
	for k := range h {
		if http.CanonicalHeaderKey(k) == canonical {
			return true
		}
	}
	return false
}

// Clone returns a copy of h.
func (h HeaderMap) Clone() HeaderMap {
	out := make(HeaderMap, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// ScanRequest is the request built for a single payload.
// It is constructed fresh per payload and never persisted.
type ScanRequest struct {
	// Method is GET or POST.
	Method string

	// URL is the request URL. For GET it carries the raw payload in the
	// ssti_test query parameter.
	URL string

	// WireURL is the URL actually sent. It equals URL except that a GET
	// payload is percent-encoded, so "#{7*7}" is not read as a fragment.
	WireURL string

	// Body is the form body for POST, with the payload appended. Empty for GET.
	Body string

	// Headers are the parsed request headers, User-Agent included.
	Headers HeaderMap

	// Timeout bounds the whole request, including reading the body.
	Timeout time.Duration

	// UserAgent is the configured user agent (also present in Headers).
	UserAgent string

	// Payload is the payload this request delivers.
	Payload Payload
}

// Response is the part of an HTTP response the classifier needs.
type Response struct {
	// StatusCode is the final status after redirects.
	StatusCode int

	// Body is the response body decoded to UTF-8.
	Body string
}
