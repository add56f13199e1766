package model

import (
	"fmt"
	"time"
)

// Outcome is the classification of one payload's response.
type Outcome int

const (
	// OutcomeNotFound means neither the expected value nor the payload was found.
	OutcomeNotFound Outcome = iota

	// OutcomeReflected means the raw payload came back unchanged.
	// This is informational and never a vulnerability.
	OutcomeReflected

	// OutcomeEvaluated means the payload's computed value was found in the
	// response: the template was evaluated server-side.
	OutcomeEvaluated

	// OutcomeError means the request for this payload failed and the scan
	// was aborted.
	OutcomeError
)

// outcomeNames maps outcomes to their serialized names.
var outcomeNames = map[Outcome]string{
	OutcomeNotFound:  "not_found",
	OutcomeReflected: "reflected",
	OutcomeEvaluated: "evaluated",
	OutcomeError:     "error",
}

// String returns the serialized name of the outcome.
func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	for outcome, name := range outcomeNames {
		if name == string(text) {
			*o = outcome
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", string(text))
}

// Attempt records what happened to one payload.
type Attempt struct {
	// Payload is the raw payload string.
	Payload string `json:"payload"`

	// Engine is the targeted template engine family.
	Engine string `json:"engine"`

	// Expected is the computed evaluation result, empty when the payload
	// is not a simple arithmetic expression.
	Expected string `json:"expected,omitempty"`

	// Outcome is the classification of the response.
	Outcome Outcome `json:"outcome"`

	// StatusCode is the HTTP status of the response, zero on transport errors.
	StatusCode int `json:"status_code,omitempty"`

	// Error describes a transport failure.
	Error string `json:"error,omitempty"`
}

// ScanResult is the outcome of a whole scan.
// It is created once the scan finishes and is not modified afterwards.
type ScanResult struct {
	// ID uniquely identifies the scan.
	ID string `json:"id"`

	// Target is the scanned URL.
	Target string `json:"target"`

	// Method is the HTTP method used to deliver payloads.
	Method string `json:"method"`

	// Vulnerable is true only when a payload's evaluated value was found.
	Vulnerable bool `json:"vulnerable"`

	// Payload is the payload that triggered the detection, if any.
	Payload string `json:"payload,omitempty"`

	// Expected is the evaluated value that was matched, if any.
	Expected string `json:"expected,omitempty"`

	// Attempts lists every payload tried, in scan order.
	Attempts []Attempt `json:"attempts"`

	// Aborted is set when the scan stopped before exhausting the payloads
	// for a reason other than a detection.
	Aborted bool `json:"aborted"`

	// Error describes why the scan was aborted.
	Error string `json:"error,omitempty"`

	// StartedAt and FinishedAt bound the scan.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the scan took.
func (r *ScanResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Count returns the number of attempts with the given outcome.
func (r *ScanResult) Count(outcome Outcome) int {
	n := 0
	for _, a := range r.Attempts {
		if a.Outcome == outcome {
			n++
		}
	}
	return n
}

// Verdict returns the one-line human-readable result printed on stdout.
func (r *ScanResult) Verdict() string {
	if r.Vulnerable {
		return VerdictVulnerable
	}
	return VerdictNotVulnerable
}

// Verdict lines printed on stdout.
const (
	VerdictVulnerable    = "Possible SSTI vulnerability found.  Review the logs for more details."
	VerdictNotVulnerable = "No SSTI vulnerabilities detected."
)
