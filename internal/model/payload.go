package model

import "strings"

// Payload is a template-engine expression sent to the target.
// Payloads are static data: the scanner never builds or modifies them.
type Payload struct {
	// Engine names the template engine family the payload targets.
	Engine string `json:"engine"`

	// Opener and Closer are the engine's expression delimiters.
	Opener string `json:"opener"`
	Closer string `json:"closer"`

	// Raw is the literal string injected into the request.
	Raw string `json:"raw"`
}

// Inner returns the expression between the payload's delimiters with
// surrounding whitespace removed. If Raw is not framed by Opener and Closer,
// Inner returns an empty string.
func (p Payload) Inner() string {
	if !strings.HasPrefix(p.Raw, p.Opener) || !strings.HasSuffix(p.Raw, p.Closer) {
		return ""
	}
	if len(p.Raw) < len(p.Opener)+len(p.Closer) {
		return ""
	}
	return strings.TrimSpace(p.Raw[len(p.Opener) : len(p.Raw)-len(p.Closer)])
}

// String returns the raw payload.
func (p Payload) String() string {
	return p.Raw
}
