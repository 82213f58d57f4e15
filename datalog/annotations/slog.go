package annotations

import (
	"context"
	"log/slog"
	"sort"
	"strings"
)

// SlogHandler returns a Handler that logs every event as a structured record.
// Error events log at Error level, lookups at Debug, everything else at Info.
func SlogHandler(logger *slog.Logger) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(event Event) {
		attrs := make([]slog.Attr, 0, len(event.Data)+1)
		attrs = append(attrs, slog.Duration("latency", event.Latency))

		keys := make([]string, 0, len(event.Data))
		for k := range event.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			attrs = append(attrs, slog.Any(k, event.Data[k]))
		}

		logger.LogAttrs(context.Background(), levelFor(event.Name), event.Name, attrs...)
	}
}

func levelFor(name string) slog.Level {
	switch {
	case strings.HasPrefix(name, "error/"):
		return slog.LevelError
	case name == IndexLookup || name == FactsInserted:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
