package app

import (
	"io"
	"log/slog"
	"strings"
)

// newLogger creates the application's logger without touching the global
// one, so several apps can run side by side in tests. Level names are parsed
// the way slog prints them ("debug", "INFO", "warn+2"); anything else means
// info. At debug level every record carries its source location.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}
	var handler slog.Handler
	switch strings.ToLower(formatStr) {
	case "json":
		handler = slog.NewJSONHandler(outW, handlerOpts)
	default:
		handler = slog.NewTextHandler(outW, handlerOpts)
	}
	return slog.New(handler)
}
