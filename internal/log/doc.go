// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// sstiscan sends user-supplied headers to the target, and those headers often
// carry credentials (Authorization, Cookie, API keys). The SecureHandler masks
// such values before they reach the log, including values nested in header
// maps, so that scan logs can be shared safely.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, log.LevelFor(verbose, quiet))
//	logger.Info("sending request",
//	    "url", "http://example.com/?ssti_test={{7*7}}",
//	    "headers", map[string]string{"Cookie": "session=abc"}, // Cookie value masked
//	)
//	slog.SetDefault(logger)
package log
