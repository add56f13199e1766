package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and ValidateTargetURL() so that
// callers can use errors.Is() to decide how a failure is reported.
var (
	// ErrNoTarget is returned when no target URL is specified.
	ErrNoTarget = errors.New("no target specified: provide a URL to test")

	// ErrInvalidURLScheme is returned when the target URL does not start with
	// http:// or https://. This check runs before any network activity.
	ErrInvalidURLScheme = errors.New("URL must start with http:// or https://")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidDelay is returned when the delay between requests is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidHeaderList is returned when the headers entry of the configuration
	// file is not a list of "Name: Value" strings.
	ErrInvalidHeaderList = errors.New("headers must be a list of 'HeaderName: HeaderValue' strings")
)
