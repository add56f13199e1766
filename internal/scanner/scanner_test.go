package scanner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/sstiscan/internal/model"
	"github.com/nao1215/sstiscan/internal/probe"
)

func testLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// stubSender answers every request with the body produced by fn.
type stubSender struct {
	calls atomic.Int32
	fn    func(req *model.ScanRequest) (*model.Response, error)
}

func (s *stubSender) Send(_ context.Context, req *model.ScanRequest) (*model.Response, error) {
	s.calls.Add(1)
	return s.fn(req)
}

func baseRequest(target string) Request {
	return Request{
		Target:    target,
		Method:    http.MethodGet,
		Timeout:   2 * time.Second,
		UserAgent: "vuln-SSTI-detector",
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		expected string
		body     string
		want     model.Outcome
	}{
		{name: "evaluated", raw: "{{7*7}}", expected: "49", body: "Hello 49", want: model.OutcomeEvaluated},
		{name: "substring match counts", raw: "{{7*7}}", expected: "49", body: `<div class="col-49">`, want: model.OutcomeEvaluated},
		{name: "reflected", raw: "{{7*7}}", expected: "49", body: "Hello {{7*7}}", want: model.OutcomeReflected},
		{name: "reflected without expected", raw: "<% print(7*7) %>", body: "x <% print(7*7) %> y", want: model.OutcomeReflected},
		{name: "no expected never evaluated", raw: "<% print(7*7) %>", body: "49", want: model.OutcomeNotFound},
		{name: "not found", raw: "{{7*7}}", expected: "49", body: "nothing", want: model.OutcomeNotFound},
		{name: "empty body", raw: "{{7*7}}", expected: "49", body: "", want: model.OutcomeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Classify(tt.raw, tt.expected, tt.body); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanDetectsEvaluation(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Query().Get(probe.ParamName) == "{{7*7}}" {
			_, _ = w.Write([]byte("<p>Hello 49</p>"))
			return
		}
		_, _ = w.Write([]byte("<p>Hello</p>"))
	}))
	defer server.Close()

	var logs strings.Builder
	s := New(probe.NewSender(), WithLogger(testLogger(&logs)))
	result := s.Scan(context.Background(), baseRequest(server.URL))

	if !result.Vulnerable {
		t.Fatalf("expected vulnerable result, got %+v", result)
	}
	if result.Payload != "{{7*7}}" || result.Expected != "49" {
		t.Errorf("payload/expected = %q/%q", result.Payload, result.Expected)
	}
	if requests.Load() != 1 {
		t.Errorf("expected early exit after 1 request, got %d", requests.Load())
	}
	if result.Verdict() != model.VerdictVulnerable {
		t.Errorf("Verdict() = %q", result.Verdict())
	}
	if !strings.Contains(logs.String(), "possible SSTI vulnerability detected") {
		t.Errorf("expected detection warning in logs:\n%s", logs.String())
	}
	if result.ID == "" {
		t.Error("expected a scan ID")
	}
}

func TestScanReflectionContinues(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("You searched for: " + r.URL.Query().Get(probe.ParamName)))
	}))
	defer server.Close()

	var logs strings.Builder
	s := New(probe.NewSender(), WithLogger(testLogger(&logs)))
	result := s.Scan(context.Background(), baseRequest(server.URL))

	if result.Vulnerable {
		t.Fatalf("reflection must not be reported as vulnerable: %+v", result)
	}
	if result.Aborted {
		t.Fatalf("unexpected abort: %s", result.Error)
	}
	if len(result.Attempts) != 7 {
		t.Errorf("expected all 7 payloads to be tried, got %d", len(result.Attempts))
	}
	if result.Attempts[0].Outcome != model.OutcomeReflected {
		t.Errorf("first attempt outcome = %v, want reflected", result.Attempts[0].Outcome)
	}
	if !strings.Contains(logs.String(), "payload reflected in response, but not evaluated") {
		t.Errorf("expected reflection note in logs:\n%s", logs.String())
	}
	if result.Verdict() != model.VerdictNotVulnerable {
		t.Errorf("Verdict() = %q", result.Verdict())
	}
}

func TestScanTransportErrorAborts(t *testing.T) {
	t.Parallel()

	sender := &stubSender{fn: func(*model.ScanRequest) (*model.Response, error) {
		return nil, probe.ErrRequestFailed
	}}

	result := New(sender, WithLogger(testLogger(io.Discard))).Scan(context.Background(), baseRequest("http://example.com"))

	if result.Vulnerable {
		t.Error("transport error must not be reported as vulnerable")
	}
	if !result.Aborted {
		t.Error("expected aborted scan")
	}
	if sender.calls.Load() != 1 {
		t.Errorf("expected exactly 1 request, got %d", sender.calls.Load())
	}
	if len(result.Attempts) != 1 || result.Attempts[0].Outcome != model.OutcomeError {
		t.Errorf("attempts = %+v", result.Attempts)
	}
}

func TestScanTimeoutOnFirstPayload(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	req := baseRequest(server.URL)
	req.Timeout = 50 * time.Millisecond

	result := New(probe.NewSender(), WithLogger(testLogger(io.Discard))).Scan(context.Background(), req)

	if result.Vulnerable || !result.Aborted {
		t.Errorf("expected aborted negative result, got %+v", result)
	}
	if requests.Load() != 1 {
		t.Errorf("expected no further requests after timeout, got %d", requests.Load())
	}
}

func TestScanHTTPErrorStatusAborts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "49", http.StatusForbidden)
	}))
	defer server.Close()

	result := New(probe.NewSender(), WithLogger(testLogger(io.Discard))).Scan(context.Background(), baseRequest(server.URL))

	if result.Vulnerable {
		t.Error("error responses must not be classified")
	}
	if !result.Aborted {
		t.Error("expected aborted scan")
	}
	if result.Attempts[0].StatusCode != http.StatusForbidden {
		t.Errorf("status = %d", result.Attempts[0].StatusCode)
	}
}

func TestScanInvalidMethod(t *testing.T) {
	t.Parallel()

	sender := &stubSender{fn: func(*model.ScanRequest) (*model.Response, error) {
		return &model.Response{StatusCode: http.StatusOK, Body: "49"}, nil
	}}

	req := baseRequest("http://example.com")
	req.Method = http.MethodPut

	result := New(sender, WithLogger(testLogger(io.Discard))).Scan(context.Background(), req)

	if result.Vulnerable || !result.Aborted {
		t.Errorf("expected aborted negative result, got %+v", result)
	}
	if sender.calls.Load() != 0 {
		t.Errorf("expected no requests, got %d", sender.calls.Load())
	}
	if !strings.Contains(result.Error, "invalid HTTP method") {
		t.Errorf("Error = %q", result.Error)
	}
}

func TestScanRecoversPanic(t *testing.T) {
	t.Parallel()

	sender := &stubSender{fn: func(*model.ScanRequest) (*model.Response, error) {
		panic("boom")
	}}

	var logs strings.Builder
	result := New(sender, WithLogger(testLogger(&logs))).Scan(context.Background(), baseRequest("http://example.com"))

	if result == nil {
		t.Fatal("Scan() returned nil")
	}
	if result.Vulnerable || !result.Aborted {
		t.Errorf("expected aborted negative result, got %+v", result)
	}
	if !strings.Contains(logs.String(), "boom") {
		t.Errorf("expected panic value in logs:\n%s", logs.String())
	}
	if result.FinishedAt.IsZero() {
		t.Error("expected FinishedAt to be set")
	}
}

func TestScanCancelledContext(t *testing.T) {
	t.Parallel()

	sender := &stubSender{fn: func(*model.ScanRequest) (*model.Response, error) {
		return &model.Response{StatusCode: http.StatusOK}, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(sender, WithLogger(testLogger(io.Discard))).Scan(ctx, baseRequest("http://example.com"))

	if !result.Aborted || !errors.Is(ctx.Err(), context.Canceled) {
		t.Errorf("expected aborted result, got %+v", result)
	}
	if sender.calls.Load() != 0 {
		t.Errorf("expected no requests, got %d", sender.calls.Load())
	}
}

func TestScanPostDeliversPayloadInBody(t *testing.T) {
	t.Parallel()

	var bodies []string
	sender := &stubSender{fn: func(req *model.ScanRequest) (*model.Response, error) {
		bodies = append(bodies, req.Body)
		return &model.Response{StatusCode: http.StatusOK, Body: "ok"}, nil
	}}

	req := baseRequest("http://example.com/form")
	req.Method = http.MethodPost
	req.Data = "name=x"
	req.Headers = []string{"User-Agent: curl"}

	result := New(sender,
		WithLogger(testLogger(io.Discard)),
		WithPayloads([]model.Payload{{Engine: "Jinja2/Twig", Opener: "{{", Closer: "}}", Raw: "{{7*7}}"}}),
	).Scan(context.Background(), req)

	if result.Vulnerable || result.Aborted {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(bodies) != 1 || bodies[0] != "name=x&ssti_test={{7*7}}" {
		t.Errorf("bodies = %v", bodies)
	}
}

func TestAborted(t *testing.T) {
	t.Parallel()

	cause := errors.New("headers must be a list")
	result := Aborted("http://example.com", http.MethodGet, cause)

	if result.Vulnerable || !result.Aborted || result.Error != cause.Error() {
		t.Errorf("Aborted() = %+v", result)
	}
	if result.Verdict() != model.VerdictNotVulnerable {
		t.Errorf("Verdict() = %q", result.Verdict())
	}
}
