package config

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultMethod is the HTTP method used to deliver payloads.
	DefaultMethod = http.MethodGet

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the scanner in HTTP requests.
	DefaultUserAgent = "vuln-SSTI-detector"

	// DefaultMaxBodySize limits the response body size read for classification.
	// 5MB is sufficient for most HTML pages while preventing memory exhaustion
	// from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultDelay is the pause between two payload requests. Zero disables pacing.
	DefaultDelay time.Duration = 0

	// AppName is the application name used for XDG directory paths.
	AppName = "sstiscan"
)

// Config holds all configuration options for a single sstiscan invocation.
// It is populated from CLI flags and the optional configuration file and is
// passed through the application rather than kept in global state.
type Config struct {
	// Target is the URL to test. It must start with http:// or https://.
	Target string

	// Method is the HTTP method used to deliver payloads (GET or POST).
	Method string

	// Data is the request body for POST. For GET it is appended to the
	// target's query string before the payload parameter.
	Data string

	// Headers are raw "Name: Value" strings. They are parsed just before
	// the scan so that malformed entries are reported, not rejected here.
	Headers []string

	// Timeout is the timeout for each payload request.
	Timeout time.Duration

	// UserAgent always replaces any User-Agent header supplied in Headers.
	UserAgent string

	// Delay is the minimum interval between two payload requests.
	Delay time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// Verbose enables debug logging.
	Verbose bool

	// Quiet restricts logging to warnings and errors.
	Quiet bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches the default locations (see FindConfigFile).
	ConfigFilePath string

	// JSONReport writes a JSON report of the scan result.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport writes a Markdown report of the scan result.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report (if any) is written to stdout.
	ReportFile string

	// SaveToDB records the scan result in the history database.
	SaveToDB bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/sstiscan on Linux).
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Method:      DefaultMethod,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		Delay:       DefaultDelay,
		MaxBodySize: DefaultMaxBodySize,
		SaveToDB:    true,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for sstiscan.
// On Linux: ~/.local/share/sstiscan
// On macOS: ~/Library/Application Support/sstiscan
// On Windows: %LOCALAPPDATA%\sstiscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sstiscan.
// On Linux: ~/.config/sstiscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ValidateTargetURL reports whether target uses an http:// or https:// scheme.
// Only the prefix is checked; anything after it is left to the HTTP client.
func ValidateTargetURL(target string) error {
	if target == "" {
		return ErrNoTarget
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return ErrInvalidURLScheme
	}
	return nil
}

// NormalizeMethod upper-cases and trims a method name given on the command
// line or in the configuration file.
func NormalizeMethod(method string) string {
	return strings.ToUpper(strings.TrimSpace(method))
}

// Validate checks if the configuration is valid and returns the first error found.
//
// The method is not checked here. An unsupported method aborts the scan with
// a negative result, not the process.
func (c *Config) Validate() error {
	if err := ValidateTargetURL(c.Target); err != nil {
		return err
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// EffectiveMaxBodySize returns MaxBodySize, or the default when it is unset.
func (c *Config) EffectiveMaxBodySize() int64 {
	if c.MaxBodySize == 0 {
		return DefaultMaxBodySize
	}
	return c.MaxBodySize
}
