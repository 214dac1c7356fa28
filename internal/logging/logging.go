// Package logging builds the slog loggers used by the nirprep binary.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// New returns a slog.Logger writing to w with the provided level string
// (debug, info, warn, error). format may be "json" or "text".
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name to a slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogScanProcessed logs a successfully processed scan.
func LogScanProcessed(logger *slog.Logger, source string, rows, points int, elapsed time.Duration) {
	logger.Info("scan processed",
		"source", source,
		"rows", rows,
		"points", points,
		"duration_ms", elapsed.Milliseconds(),
	)
}

// LogScanFailed logs a scan that could not be processed.
func LogScanFailed(logger *slog.Logger, source string, elapsed time.Duration, err error) {
	logger.Error("scan failed",
		"source", source,
		"duration_ms", elapsed.Milliseconds(),
		"error", err.Error(),
	)
}
