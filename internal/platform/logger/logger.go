package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Debug level is enabled
// outside production so request traces stay visible during development.
func New(development bool) *slog.Logger {
	level := slog.LevelInfo
	if development {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
