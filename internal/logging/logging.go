package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup creates the process logger, installs it as the slog default, and
// returns it. Level accepts debug, info, warn, or error (case-insensitive);
// anything else falls back to info.
func Setup(level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
