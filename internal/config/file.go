package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// HeaderList is a list of raw "Name: Value" header strings as written in the
// configuration file. Decoding fails with ErrInvalidHeaderList when the YAML
// node is anything other than a sequence of scalars.
type HeaderList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *HeaderList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("%w (line %d)", ErrInvalidHeaderList, node.Line)
	}

	list := make(HeaderList, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return fmt.Errorf("%w (line %d)", ErrInvalidHeaderList, item.Line)
		}
		list = append(list, item.Value)
	}
	*h = list
	return nil
}

// TargetConfig holds settings for one target URL, or the defaults applied to
// every target.
type TargetConfig struct {
	// Headers are additional "Name: Value" request headers.
	Headers HeaderList `yaml:"headers,omitempty"`

	// Data is the request body (POST) or extra query string (GET).
	Data string `yaml:"data,omitempty"`

	// Method overrides the HTTP method.
	Method string `yaml:"method,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Timeout overrides the per-request timeout, in seconds.
	Timeout int `yaml:"timeout,omitempty"`
}

// File represents the structure of the .sstiscan configuration file.
//
//	defaults:
//	  userAgent: "my-scanner"
//	  headers:
//	    - "Accept: text/html"
//	targets:
//	  "https://example.com/search":
//	    method: POST
//	    data: "q=test"
//	    headers:
//	      - "Cookie: session=abc"
type File struct {
	// Defaults applies to every target unless overridden.
	Defaults TargetConfig `yaml:"defaults,omitempty"`

	// Targets maps a target URL to its specific configuration.
	Targets map[string]TargetConfig `yaml:"targets,omitempty"`
}

// GetTargetConfig returns the configuration for target, merged over the defaults.
// Headers are concatenated (defaults first) so that later entries win when the
// list is parsed; scalar values are replaced when set.
func (f *File) GetTargetConfig(target string) TargetConfig {
	result := f.Defaults
	result.Headers = append(HeaderList(nil), f.Defaults.Headers...)

	override, ok := f.Targets[target]
	if !ok {
		return result
	}

	result.Headers = append(result.Headers, override.Headers...)
	if override.Data != "" {
		result.Data = override.Data
	}
	if override.Method != "" {
		result.Method = override.Method
	}
	if override.UserAgent != "" {
		result.UserAgent = override.UserAgent
	}
	if override.Timeout > 0 {
		result.Timeout = override.Timeout
	}

	return result
}
