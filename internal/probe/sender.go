package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"github.com/nao1215/sstiscan/internal/model"
)

// defaultMaxBodySize is used when no body limit is configured.
const defaultMaxBodySize = 5 * 1024 * 1024

// Sender issues ScanRequests over HTTP.
// A Sender is safe for sequential use; the scanner never sends in parallel.
type Sender struct {
	// client follows redirects and carries no timeout of its own; each
	// request is bounded by its ScanRequest.Timeout.
	client *http.Client

	// maxBodySize caps the number of response bytes that are read.
	maxBodySize int64

	// limiter paces requests when a delay is configured. Nil means no pacing.
	limiter *rate.Limiter

	logger *slog.Logger
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) SenderOption {
	return func(s *Sender) {
		if client != nil {
			s.client = client
		}
	}
}

// WithMaxBodySize limits how many bytes of each response body are read.
func WithMaxBodySize(size int64) SenderOption {
	return func(s *Sender) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

// WithDelay makes the Sender wait at least d between consecutive requests.
func WithDelay(d time.Duration) SenderOption {
	return func(s *Sender) {
		if d > 0 {
			s.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithLogger sets the logger used for request-level debug output.
func WithLogger(logger *slog.Logger) SenderOption {
	return func(s *Sender) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSender creates a Sender with the given options.
func NewSender(opts ...SenderOption) *Sender {
	s := &Sender{
		client:      &http.Client{},
		maxBodySize: defaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send performs req and returns the decoded response.
//
// Errors are ErrRequestFailed for transport problems and timeouts, and
// ErrHTTPStatus when the final status is 400 or higher. The response is
// still returned alongside ErrHTTPStatus.
func (s *Sender) Send(ctx context.Context, req *model.ScanRequest) (*model.Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
		}
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	target := req.WireURL
	if target == "" {
		target = req.URL
	}

	var body io.Reader
	if req.Method == http.MethodPost {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	for name, value := range req.Headers {
		// net/http sends req.Host, never Header["Host"].
		if strings.EqualFold(name, "Host") {
			httpReq.Host = value
			continue
		}
		httpReq.Header.Set(name, value)
	}
	httpReq.Header.Set(model.UserAgentHeader, req.UserAgent)

	s.logger.Debug("sending request",
		"method", req.Method,
		"url", req.URL,
		"headers", map[string]string(req.Headers),
	)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err)
	}

	out := &model.Response{
		StatusCode: resp.StatusCode,
		Body:       decodeBody(raw, resp.Header.Get("Content-Type")),
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return out, fmt.Errorf("%w: %d %s", ErrHTTPStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return out, nil
}

// decodeBody converts raw to UTF-8 using the charset declared in contentType,
// a <meta> tag, or a BOM. Undecodable input is returned as-is.
func decodeBody(raw []byte, contentType string) string {
	enc, name, _ := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" || enc == nil {
		return string(raw)
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
