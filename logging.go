package renamer

import (
	"io"
	"log/slog"
)

// NewLogger builds the logger for one invocation. Per-file decisions are logged
// at debug level, so they only show up when verbose is set.
func NewLogger(w io.Writer, verbose bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts)).With(slog.String("app", "tree-renamer"))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
