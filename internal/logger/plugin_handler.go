package logger

import (
	"io"
	"log/slog"
)

// NewPluginLogger returns a logger for use inside a plugin process.
//
// go-plugin re-logs every line a plugin writes to stderr. Lines that are JSON
// objects with hclog's "@level", "@message" and "@timestamp" keys keep their
// level and attributes on the host side, so the handler renames slog's keys.
func NewPluginLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: hclogKeys,
	}))
}

func hclogKeys(groups []string, a slog.Attr) slog.Attr {
	if len(groups) != 0 {
		return a
	}
	switch a.Key {
	case slog.LevelKey:
		a.Key = "@level"
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(hclogLevel(lvl))
		}
	case slog.MessageKey:
		a.Key = "@message"
	case slog.TimeKey:
		a.Key = "@timestamp"
	}
	return a
}

func hclogLevel(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "debug"
	case l < slog.LevelWarn:
		return "info"
	case l < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

