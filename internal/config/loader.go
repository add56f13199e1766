package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".sstiscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads target configurations from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// A headers entry that is not a list yields an error wrapping ErrInvalidHeaderList.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Targets == nil {
		cf.Targets = make(map[string]TargetConfig)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .sstiscan in the current directory
// 3. Look for .sstiscan in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// Apply copies values from a target configuration into c.
// Fields listed in explicit were set on the command line and are left alone,
// except for headers: file headers are prepended to the command-line ones.
func (c *Config) Apply(tc TargetConfig, explicit map[string]bool) {
	if len(tc.Headers) > 0 {
		c.Headers = append(append([]string(nil), tc.Headers...), c.Headers...)
	}
	if tc.Data != "" && !explicit["data"] {
		c.Data = tc.Data
	}
	if tc.Method != "" && !explicit["method"] {
		c.Method = NormalizeMethod(tc.Method)
	}
	if tc.UserAgent != "" && !explicit["user-agent"] {
		c.UserAgent = tc.UserAgent
	}
	if tc.Timeout > 0 && !explicit["timeout"] {
		c.Timeout = time.Duration(tc.Timeout) * time.Second
	}
}
