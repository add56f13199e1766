package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/sstiscan/internal/model"
	"github.com/nao1215/sstiscan/internal/payload"
	"github.com/nao1215/sstiscan/internal/probe"
)

// Request describes one scan as resolved from flags and the config file.
type Request struct {
	// Target is the base URL. It must already be validated.
	Target string

	// Method is GET or POST. Other methods abort the scan.
	Method string

	// Data is the optional form body (POST) or extra query string (GET).
	Data string

	// Headers are raw "Name: Value" strings.
	Headers []string

	// Timeout bounds each request.
	Timeout time.Duration

	// UserAgent replaces any User-Agent given in Headers.
	UserAgent string
}

// Sender delivers a single ScanRequest.
// *probe.Sender is the production implementation.
type Sender interface {
	Send(ctx context.Context, req *model.ScanRequest) (*model.Response, error)
}

// Scanner runs payloads against a target.
type Scanner struct {
	sender   Sender
	payloads []model.Payload
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger used for scan progress.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPayloads replaces the built-in corpus. Intended for tests.
func WithPayloads(payloads []model.Payload) Option {
	return func(s *Scanner) {
		s.payloads = payloads
	}
}

// New creates a Scanner that sends requests through sender.
func New(sender Sender, opts ...Option) *Scanner {
	s := &Scanner{
		sender:   sender,
		payloads: payload.All(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs every payload against req.Target until one is evaluated.
//
// Scan never returns nil. Failures are reported in the result: Aborted is set,
// Error holds the cause and Vulnerable is false. A panic inside the loop is
// recovered and reported the same way.
func (s *Scanner) Scan(ctx context.Context, req Request) (result *model.ScanResult) {
	res := &model.ScanResult{
		ID:        uuid.NewString(),
		Target:    req.Target,
		Method:    req.Method,
		Attempts:  make([]model.Attempt, 0, len(s.payloads)),
		StartedAt: s.now(),
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("an unexpected error occurred",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			res.Vulnerable = false
			res.Payload = ""
			res.Expected = ""
			res.Aborted = true
			res.Error = fmt.Sprintf("unexpected error: %v", r)
		}
		res.FinishedAt = s.now()
		result = res
	}()

	if req.Method == http.MethodGet && req.Data != "" {
		s.logger.Warn("data provided with GET request; it will be appended to the URL",
			"data", req.Data,
		)
	}

	headers := probe.ParseHeaders(req.Headers, req.UserAgent, s.logger)
	injector, err := probe.NewInjector(req.Method, req.Target, req.Data, headers, req.Timeout, req.UserAgent)
	if err != nil {
		s.logger.Error("invalid HTTP method", "method", req.Method)
		res.Aborted = true
		res.Error = err.Error()
		return res
	}

	for _, p := range s.payloads {
		if err := ctx.Err(); err != nil {
			s.logger.Error("scan cancelled", "error", err)
			res.Aborted = true
			res.Error = err.Error()
			return res
		}

		attempt, stop := s.try(ctx, injector, p)
		res.Attempts = append(res.Attempts, attempt)

		if attempt.Outcome == model.OutcomeError {
			res.Aborted = true
			res.Error = attempt.Error
			return res
		}
		if stop {
			res.Vulnerable = true
			res.Payload = attempt.Payload
			res.Expected = attempt.Expected
			return res
		}
	}

	s.logger.Info("no SSTI vulnerabilities detected", "payloads", len(res.Attempts))
	return res
}

// try sends one payload and classifies the response. stop is true when the
// payload was evaluated.
func (s *Scanner) try(ctx context.Context, injector *probe.Injector, p model.Payload) (model.Attempt, bool) {
	attempt := model.Attempt{Payload: p.Raw, Engine: p.Engine}

	req := injector.Build(p)
	s.logger.Info("testing payload", "payload", p.Raw, "url", req.URL)

	resp, err := s.sender.Send(ctx, req)
	if resp != nil {
		attempt.StatusCode = resp.StatusCode
	}
	if err != nil {
		s.logger.Error("request failed", "payload", p.Raw, "error", err)
		attempt.Outcome = model.OutcomeError
		attempt.Error = err.Error()
		return attempt, false
	}

	expected, err := payload.Expected(p)
	if err != nil {
		s.logger.Debug("payload is not a simple arithmetic expression",
			"payload", p.Raw,
			"reason", err,
		)
	}
	attempt.Expected = expected
	attempt.Outcome = Classify(p.Raw, expected, resp.Body)

	switch attempt.Outcome {
	case model.OutcomeEvaluated:
		s.logger.Warn("possible SSTI vulnerability detected",
			"payload", p.Raw,
			"expected", expected,
		)
		return attempt, true
	case model.OutcomeReflected:
		s.logger.Info("payload reflected in response, but not evaluated", "payload", p.Raw)
	default:
		s.logger.Debug("payload not found in response", "payload", p.Raw)
	}
	return attempt, false
}

// Classify decides what a response body says about one payload.
// An empty expected value means the payload has no predictable rendering.
// Matching is a plain substring search, so an expected value that happens to
// occur elsewhere in the page is reported as evaluated.
func Classify(raw, expected, body string) model.Outcome {
	switch {
	case expected != "" && strings.Contains(body, expected):
		return model.OutcomeEvaluated
	case raw != "" && strings.Contains(body, raw):
		return model.OutcomeReflected
	default:
		return model.OutcomeNotFound
	}
}

// Aborted builds the result of a scan that could not start, for example
// because the config file's header list was malformed.
func Aborted(target, method string, cause error) *model.ScanResult {
	now := time.Now()
	res := &model.ScanResult{
		ID:         uuid.NewString(),
		Target:     target,
		Method:     method,
		Attempts:   []model.Attempt{},
		Aborted:    true,
		StartedAt:  now,
		FinishedAt: now,
	}
	if cause != nil {
		res.Error = cause.Error()
	}
	return res
}
