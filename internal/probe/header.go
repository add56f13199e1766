package probe

import (
	"log/slog"
	"strings"

	"github.com/nao1215/sstiscan/internal/model"
)

// ParseHeaders converts raw "Name: Value" strings into a HeaderMap.
//
// Each entry is split on its first colon and both sides are trimmed. Entries
// without a colon, or with an empty name, are skipped with a warning. Later
// entries overwrite earlier ones with the same name. Finally User-Agent is set
// to userAgent, replacing any value supplied in raw.
func ParseHeaders(raw []string, userAgent string, logger *slog.Logger) model.HeaderMap {
	if logger == nil {
		logger = slog.Default()
	}

	headers := make(model.HeaderMap, len(raw)+1)
	for _, entry := range raw {
		name, value, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			logger.Warn("invalid header format, skipping", "header", entry)
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}

	for name := range headers {
		if strings.EqualFold(name, model.UserAgentHeader) {
			delete(headers, name)
		}
	}
	headers[model.UserAgentHeader] = userAgent

	return headers
}
