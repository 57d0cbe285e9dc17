package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the handler used by New
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// New returns a logger writing to w at the given level. An empty level falls
// back to LOG_LEVEL from the environment, then to warn.
func New(w io.Writer, level string, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// ParseLevel resolves a level name; unknown or empty names use LOG_LEVEL,
// then warn.
func ParseLevel(level string) slog.Level {
	for _, candidate := range []string{level, os.Getenv("LOG_LEVEL")} {
		if candidate == "" {
			continue
		}
		if strings.EqualFold(candidate, "warning") {
			candidate = "warn"
		}
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(candidate)); err == nil {
			return parsed
		}
	}
	return slog.LevelWarn
}
