package probe

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/sstiscan/internal/model"
)

// ParamName is the query parameter / form field that carries the payload.
const ParamName = "ssti_test"

// formContentType is sent with POST bodies unless the user set a Content-Type.
const formContentType = "application/x-www-form-urlencoded"

// Injector builds one ScanRequest per payload for a fixed target.
type Injector struct {
	method    string
	target    string
	data      string
	headers   model.HeaderMap
	timeout   time.Duration
	userAgent string
}

// NewInjector returns an Injector for the given target and request settings.
// It fails with ErrUnsupportedMethod unless method is GET or POST.
//
// For GET, data (if any) is appended to the target's query string once, and
// each payload is appended after it.
func NewInjector(method, target, data string, headers model.HeaderMap, timeout time.Duration, userAgent string) (*Injector, error) {
	switch method {
	case http.MethodGet:
		if data != "" {
			target = AppendParam(target, data)
			data = ""
		}
	case http.MethodPost:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}

	return &Injector{
		method:    method,
		target:    target,
		data:      data,
		headers:   headers,
		timeout:   timeout,
		userAgent: userAgent,
	}, nil
}

// Build returns the request that delivers p.
func (i *Injector) Build(p model.Payload) *model.ScanRequest {
	req := &model.ScanRequest{
		Method:    i.method,
		Headers:   i.headers.Clone(),
		Timeout:   i.timeout,
		UserAgent: i.userAgent,
		Payload:   p,
	}

	switch i.method {
	case http.MethodGet:
		req.URL = BuildTestURL(i.target, p.Raw)
		req.WireURL = AppendParam(i.target, ParamName+"="+url.QueryEscape(p.Raw))
	case http.MethodPost:
		req.URL = i.target
		req.WireURL = i.target
		req.Body = BuildTestBody(i.data, p.Raw)
		if !req.Headers.Has("Content-Type") {
			req.Headers["Content-Type"] = formContentType
		}
	}

	return req
}

// BuildTestURL appends ssti_test=<payload> to target without encoding the payload.
// The separator is "&" when target already contains "?", otherwise "?".
func BuildTestURL(target, payload string) string {
	return AppendParam(target, ParamName+"="+payload)
}

// BuildTestBody appends ssti_test=<payload> to data with "&", or returns the pair
// alone when data is empty. The payload is not encoded.
func BuildTestBody(data, payload string) string {
	pair := ParamName + "=" + payload
	if data == "" {
		return pair
	}
	return data + "&" + pair
}

// AppendParam appends a raw "key=value" pair (or several, joined by "&") to
// rawURL's query string.
func AppendParam(rawURL, pair string) string {
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + pair
	}
	return rawURL + "?" + pair
}
