// Package config provides configuration structures and utilities for sstiscan.
// It defines the options for probing a target endpoint, the optional YAML
// configuration file, and report and history preferences.
package config
